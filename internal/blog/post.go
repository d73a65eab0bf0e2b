package blog

import (
	"errors"
	"slices"
	"time"

	"github.com/adeneu/portfolio-web/internal/frontmatter"
)

const (
	LocaleFR      = "fr"
	LocaleEN      = "en"
	DefaultLocale = LocaleFR
)

// SupportedLocales is the order in which locales are consulted when a post
// is missing in the requested one.
var SupportedLocales = []string{LocaleFR, LocaleEN}

var ErrPostNotFound = errors.New("post not found")

type Metadata struct {
	Title         string                    `json:"title"`
	Description   string                    `json:"description"`
	Date          string                    `json:"date"`
	Published     bool                      `json:"published"`
	Categories    []string                  `json:"categories"`
	Author        string                    `json:"author,omitempty"`
	CoverImage    string                    `json:"coverImage,omitempty"`
	CoverImageAlt string                    `json:"coverImageAlt,omitempty"`
	ReadingTime   int                       `json:"readingTime"`
	Slug          frontmatter.LocalizedSlug `json:"slug"`
}

func (m *Metadata) Time() time.Time {
	return frontmatter.ParseDate(m.Date)
}

func (m *Metadata) HasCategory(category string) bool {
	return slices.Contains(m.Categories, category)
}

type Post struct {
	Metadata
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Locale  string `json:"locale"`
	Path    string `json:"-"`
}

// ListItem is a post as shown in listings, with its slug already resolved
// for the listing language.
type ListItem struct {
	Metadata Metadata `json:"metadata"`
	Slug     string   `json:"slug"`
	Excerpt  string   `json:"excerpt"`
	Locale   string   `json:"locale"`
}

type PaginationParams struct {
	Page     int
	Limit    int
	Category string
	Language string
}

type PaginationResult struct {
	Posts       []ListItem `json:"posts"`
	TotalPosts  int        `json:"totalPosts"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	HasNextPage bool       `json:"hasNextPage"`
	HasPrevPage bool       `json:"hasPrevPage"`
}

func (p *Post) listItem(lang string) ListItem {
	return ListItem{
		Metadata: p.Metadata,
		Slug:     p.Slug.Resolve(lang),
		Excerpt:  p.Excerpt,
		Locale:   p.Locale,
	}
}

func newestFirst(a, b ListItem) int {
	return b.Metadata.Time().Compare(a.Metadata.Time())
}
