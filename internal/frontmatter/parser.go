package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrMissingFields = errors.New("missing required metadata fields: title, description, or date")
)

var (
	yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)
	validate   = validator.New(validator.WithRequiredStructEnabled())
)

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type Metadata struct {
	Title         string
	Description   string
	Date          string
	Published     bool
	Categories    []string
	Author        string
	CoverImage    string
	CoverImageAlt string
	Slug          LocalizedSlug
}

type rawMetadata struct {
	Title         string        `yaml:"title" validate:"required"`
	Description   string        `yaml:"description" validate:"required"`
	Date          string        `yaml:"date" validate:"required"`
	Published     *bool         `yaml:"published"`
	Categories    []string      `yaml:"categories"`
	Author        string        `yaml:"author"`
	CoverImage    string        `yaml:"coverImage"`
	CoverImageAlt string        `yaml:"coverImageAlt"`
	Slug          LocalizedSlug `yaml:"slug"`
}

func (m *Metadata) Time() time.Time {
	return ParseDate(m.Date)
}

// ParseDate reads a frontmatter date with the first matching layout. The
// zero time is returned for dates none of the layouts understand.
func ParseDate(date string) time.Time {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseFrontmatter splits a `---` delimited YAML header from the markdown
// body that follows it.
func ParseFrontmatter(content []byte) (metadata *Metadata, markdown []byte, err error) {
	raw := rawMetadata{}
	markdown, err = frontmatter.MustParse(bytes.NewReader(content), &raw, yamlFormat)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return nil, content, ErrNoFrontmatter
		}
		return nil, nil, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}

	raw.Title = strings.TrimSpace(raw.Title)
	raw.Description = strings.TrimSpace(raw.Description)
	raw.Date = strings.TrimSpace(raw.Date)
	if err := validate.Struct(&raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMissingFields, err)
	}

	metadata = &Metadata{
		Title:         raw.Title,
		Description:   raw.Description,
		Date:          raw.Date,
		Published:     raw.Published == nil || *raw.Published,
		Categories:    raw.Categories,
		Author:        raw.Author,
		CoverImage:    raw.CoverImage,
		CoverImageAlt: raw.CoverImageAlt,
		Slug:          raw.Slug,
	}
	if metadata.Categories == nil {
		metadata.Categories = []string{}
	}

	return metadata, bytes.TrimLeft(markdown, "\r\n"), nil
}
