package seo

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/adeneu/portfolio-web/internal/blog"
)

const MIMESitemap = "application/xml; charset=utf-8"

type ChangeFreq string

const (
	Always  ChangeFreq = "always"
	Hourly  ChangeFreq = "hourly"
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
	Yearly  ChangeFreq = "yearly"
	Never   ChangeFreq = "never"
)

const defaultPriority = 0.5

type Alternate struct {
	Lang string
	Href string
}

// URLOptions are optional per-entry settings. Zero values take the sitemap
// defaults: today, weekly, priority 0.5.
type URLOptions struct {
	LastMod    string
	ChangeFreq ChangeFreq
	Priority   *float64
	Alternates []Alternate
}

type Entry struct {
	Loc        string
	LastMod    string
	ChangeFreq ChangeFreq
	Priority   float64
	Alternates []Alternate
}

func Priority(p float64) *float64 {
	return &p
}

type Sitemap struct {
	baseURL string
	entries []Entry
	now     func() time.Time
}

func NewSitemap(baseURL string) *Sitemap {
	return &Sitemap{
		baseURL: strings.TrimRight(baseURL, "/"),
		entries: make([]Entry, 0),
		now:     time.Now,
	}
}

// AddURL appends an entry. Relative locations are joined to the base URL.
func (s *Sitemap) AddURL(loc string, opts URLOptions) {
	entry := Entry{
		Loc:        s.absolute(loc),
		LastMod:    opts.LastMod,
		ChangeFreq: opts.ChangeFreq,
		Priority:   defaultPriority,
		Alternates: make([]Alternate, 0, len(opts.Alternates)),
	}
	if entry.LastMod == "" {
		entry.LastMod = s.now().UTC().Format(time.DateOnly)
	}
	if entry.ChangeFreq == "" {
		entry.ChangeFreq = Weekly
	}
	if opts.Priority != nil {
		entry.Priority = *opts.Priority
	}
	for _, alt := range opts.Alternates {
		entry.Alternates = append(entry.Alternates, Alternate{Lang: alt.Lang, Href: s.absolute(alt.Href)})
	}
	s.entries = append(s.entries, entry)
}

func (s *Sitemap) Entries() []Entry {
	return s.entries
}

func (s *Sitemap) absolute(loc string) string {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return loc
	}
	return s.baseURL + "/" + strings.TrimLeft(loc, "/")
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	NS      string   `xml:"xmlns,attr"`
	XHTMLNS string   `xml:"xmlns:xhtml,attr"`
	URLs    []urlXML `xml:"url"`
}

type urlXML struct {
	Loc        string         `xml:"loc"`
	LastMod    string         `xml:"lastmod"`
	ChangeFreq ChangeFreq     `xml:"changefreq"`
	Priority   string         `xml:"priority"`
	Links      []alternateXML `xml:"xhtml:link"`
}

type alternateXML struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

func (s *Sitemap) Generate() ([]byte, error) {
	set := urlSet{
		NS:      "http://www.sitemaps.org/schemas/sitemap/0.9",
		XHTMLNS: "http://www.w3.org/1999/xhtml",
		URLs:    make([]urlXML, 0, len(s.entries)),
	}
	for _, entry := range s.entries {
		u := urlXML{
			Loc:        entry.Loc,
			LastMod:    entry.LastMod,
			ChangeFreq: entry.ChangeFreq,
			Priority:   strconv.FormatFloat(entry.Priority, 'f', -1, 64),
		}
		for _, alt := range entry.Alternates {
			u.Links = append(u.Links, alternateXML{Rel: "alternate", Hreflang: alt.Lang, Href: alt.Href})
		}
		set.URLs = append(set.URLs, u)
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("fail to encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Validate reports whether out is well-formed XML with a urlset root.
func Validate(out []byte) bool {
	decoder := xml.NewDecoder(bytes.NewReader(out))
	root := ""
	for {
		token, err := decoder.Token()
		if err != nil {
			return errors.Is(err, io.EOF) && root == "urlset"
		}
		if start, ok := token.(xml.StartElement); ok && root == "" {
			root = start.Name.Local
		}
	}
}

// PostSource is the part of the blog repository the sitemap is built from.
type PostSource interface {
	GetAllPosts(ctx context.Context, lang string) ([]blog.ListItem, error)
	GetPostTranslations(ctx context.Context, slug, lang string) (map[string]string, error)
}

type staticPage struct {
	loc        string
	priority   float64
	changeFreq ChangeFreq
}

var staticPages = []staticPage{
	{"/", 1.0, Weekly},
	{"/en", 0.9, Weekly},
	{"/blog", 0.8, Daily},
	{"/en/blog", 0.8, Daily},
	{"/projects", 0.8, Weekly},
	{"/en/projects", 0.8, Weekly},
}

func postPath(lang, slug string) string {
	if lang == blog.LocaleEN {
		return "/en/blog/" + slug
	}
	return "/blog/" + slug
}

// BuildSitemap lists the static pages and every published post of both
// languages, each with links to its translations. Failing to load posts
// leaves only the static pages.
func BuildSitemap(ctx context.Context, posts PostSource, baseURL string, logger *slog.Logger) *Sitemap {
	sitemap := NewSitemap(baseURL)

	for _, page := range staticPages {
		opts := URLOptions{ChangeFreq: page.changeFreq, Priority: Priority(page.priority)}
		if page.loc == "/" {
			opts.Alternates = []Alternate{{Lang: blog.LocaleEN, Href: "/en"}, {Lang: blog.LocaleFR, Href: "/"}}
		}
		sitemap.AddURL(page.loc, opts)
	}

	if err := addPosts(ctx, sitemap, posts); err != nil {
		logger.Error("failed to load blog posts for sitemap", slog.String("error", err.Error()))
	}

	return sitemap
}

func addPosts(ctx context.Context, sitemap *Sitemap, posts PostSource) error {
	for _, lang := range blog.SupportedLocales {
		items, err := posts.GetAllPosts(ctx, lang)
		if err != nil {
			return fmt.Errorf("fail to load %s posts: %w", lang, err)
		}
		for _, item := range items {
			translations, err := posts.GetPostTranslations(ctx, item.Slug, lang)
			if err != nil {
				return fmt.Errorf("fail to load translations of '%s': %w", item.Slug, err)
			}

			alternates := make([]Alternate, 0, len(translations))
			for _, locale := range []string{blog.LocaleEN, blog.LocaleFR} {
				if slug, ok := translations[locale]; ok {
					alternates = append(alternates, Alternate{Lang: locale, Href: postPath(locale, slug)})
				}
			}

			lastMod := ""
			if t := item.Metadata.Time(); !t.IsZero() {
				lastMod = t.UTC().Format(time.RFC3339)
			}
			sitemap.AddURL(postPath(lang, item.Slug), URLOptions{
				LastMod:    lastMod,
				ChangeFreq: Monthly,
				Priority:   Priority(0.7),
				Alternates: alternates,
			})
		}
	}
	return nil
}
