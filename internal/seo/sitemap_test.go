package seo

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/adeneu/portfolio-web/internal/blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPosts struct {
	byLang       map[string][]blog.ListItem
	translations map[string]map[string]string
	err          error
}

func (s *stubPosts) GetAllPosts(_ context.Context, lang string) ([]blog.ListItem, error) {
	return s.byLang[lang], s.err
}

func (s *stubPosts) GetPostTranslations(_ context.Context, slug, _ string) (map[string]string, error) {
	if t, ok := s.translations[slug]; ok {
		return t, nil
	}
	return map[string]string{}, nil
}

func TestAddURLDefaults(t *testing.T) {
	sitemap := NewSitemap("https://example.com/")
	sitemap.now = func() time.Time { return time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC) }

	sitemap.AddURL("/about", URLOptions{})
	sitemap.AddURL("https://other.example/x", URLOptions{ChangeFreq: Daily, Priority: Priority(0), LastMod: "2024-01-01"})

	entries := sitemap.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{
		Loc:        "https://example.com/about",
		LastMod:    "2024-06-02",
		ChangeFreq: Weekly,
		Priority:   0.5,
		Alternates: []Alternate{},
	}, entries[0])
	assert.Equal(t, "https://other.example/x", entries[1].Loc)
	assert.Equal(t, 0.0, entries[1].Priority)
	assert.Equal(t, Daily, entries[1].ChangeFreq)
}

func TestGenerate(t *testing.T) {
	sitemap := NewSitemap("https://example.com")
	sitemap.AddURL("/", URLOptions{
		LastMod:    "2024-01-01",
		Priority:   Priority(1.0),
		Alternates: []Alternate{{Lang: "en", Href: "/en"}},
	})

	out, err := sitemap.Generate()
	require.NoError(t, err)
	xml := string(out)

	assert.Contains(t, xml, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml">`)
	assert.Contains(t, xml, "<loc>https://example.com/</loc>")
	assert.Contains(t, xml, "<priority>1</priority>")
	assert.Contains(t, xml, "<changefreq>weekly</changefreq>")
	assert.Contains(t, xml, `<xhtml:link rel="alternate" hreflang="en" href="https://example.com/en"></xhtml:link>`)
	assert.True(t, Validate(out))
	assert.False(t, Validate([]byte("<rss></rss>")))
	assert.False(t, Validate([]byte("<urlset>")))
}

func TestBuildSitemap(t *testing.T) {
	posts := &stubPosts{
		byLang: map[string][]blog.ListItem{
			"fr": {{Slug: "bonjour", Metadata: blog.Metadata{Date: "2024-03-01"}}},
			"en": {{Slug: "hello", Metadata: blog.Metadata{Date: "2024-03-01"}}},
		},
		translations: map[string]map[string]string{
			"bonjour": {"fr": "bonjour", "en": "hello"},
			"hello":   {"fr": "bonjour", "en": "hello"},
		},
	}

	sitemap := BuildSitemap(context.Background(), posts, "https://example.com", slog.Default())
	entries := sitemap.Entries()
	require.Len(t, entries, len(staticPages)+2)

	home := entries[0]
	assert.Equal(t, "https://example.com/", home.Loc)
	assert.Len(t, home.Alternates, 2)

	fr := entries[len(staticPages)]
	assert.Equal(t, "https://example.com/blog/bonjour", fr.Loc)
	assert.Equal(t, "2024-03-01T00:00:00Z", fr.LastMod)
	assert.Equal(t, 0.7, fr.Priority)
	assert.Equal(t, Monthly, fr.ChangeFreq)
	assert.Equal(t, []Alternate{
		{Lang: "en", Href: "https://example.com/en/blog/hello"},
		{Lang: "fr", Href: "https://example.com/blog/bonjour"},
	}, fr.Alternates)

	en := entries[len(staticPages)+1]
	assert.Equal(t, "https://example.com/en/blog/hello", en.Loc)
}

func TestBuildSitemapDegradesWithoutPosts(t *testing.T) {
	posts := &stubPosts{err: errors.New("storage down")}
	sitemap := BuildSitemap(context.Background(), posts, "https://example.com", slog.Default())
	assert.Len(t, sitemap.Entries(), len(staticPages))
}
