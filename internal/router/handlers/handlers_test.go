package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/adeneu/portfolio-web/config"
	"github.com/adeneu/portfolio-web/internal/blog"
	"github.com/adeneu/portfolio-web/internal/contact"
	"github.com/adeneu/portfolio-web/internal/content"
	"github.com/adeneu/portfolio-web/internal/feed"
	"github.com/adeneu/portfolio-web/internal/markdown"
	"github.com/adeneu/portfolio-web/internal/projects"
	"github.com/adeneu/portfolio-web/internal/router"
	_ "github.com/adeneu/portfolio-web/internal/router/handlers"
	"github.com/adeneu/portfolio-web/locale"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectsData = `
items:
  - title: Tanden Dash
    github: https://github.com/AxelDeneu/tanden-dash
    dates: July 2024 - Present
    active: true
    description:
      en: Personal dashboard for home use.
      fr: Tableau de bord personnel.
    technologies: [SvelteKit, SQLite]
  - title: phpIP
    dates: September 2024 - Present
    active: true
    description: A simple IP management tool written in PHP.
    technologies: [Laravel, PHP]
`

func post(title, date string, extra ...string) *fstest.MapFile {
	lines := []string{"---", "title: " + title, "description: About " + title, "date: " + date}
	lines = append(lines, extra...)
	lines = append(lines, "---", "", "## "+title, "", "Body of "+title)
	return &fstest.MapFile{Data: []byte(strings.Join(lines, "\n"))}
}

type recordingSender struct {
	mu   sync.Mutex
	sent []*contact.Message
}

func (s *recordingSender) Send(_ context.Context, msg *contact.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newTestApp(t *testing.T) (*fiber.App, *recordingSender) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	matcher, err := content.NewMatcher(content.DefaultPattern)
	require.NoError(t, err)
	repository := blog.NewRepository(content.NewFSSource(fstest.MapFS{
		"bonjour.md":    post("Bonjour", "2024-03-01", "categories: [Go]", "slug:", "  fr: bonjour", "  en: hello"),
		"bonjour.en.md": post("Hello", "2024-03-01", "categories: [Go]", "slug:", "  fr: bonjour", "  en: hello"),
		"suite.md":      post("Suite", "2024-02-01", "categories: [Go, Web]"),
		"brouillon.md":  post("Brouillon", "2024-04-01", "published: false"),
	}, matcher), blog.NewProcessor(markdown.NewRenderer(markdown.Options{})), logger)

	projectRepository, err := projects.NewStaticRepository([]byte(projectsData))
	require.NoError(t, err)

	pageCache, err := router.NewPageCache()
	require.NoError(t, err)
	t.Cleanup(pageCache.Close)

	sender := &recordingSender{}
	supplements := &router.Supplements{
		Logger:  logger,
		BaseURL: "https://example.com",
		Author:  "Axel",
		AvailableLanguages: []config.AvailableLanguageConfig{
			{Name: "fr", LocFile: "fr.yaml"},
			{Name: "en", LocFile: "en.yaml"},
		},
		Localization: map[string]*locale.LocaleConfig{
			"fr": {Feed: locale.FeedConfig{Title: "Blog FR", Description: "Notes"}},
			"en": {Feed: locale.FeedConfig{Title: "Blog EN", Description: "Notes"}},
		},
		PageCache:    pageCache,
		Blog:         repository,
		Feeds:        feed.NewGenerator(repository),
		Projects:     projects.NewService(projectRepository, projects.NewBleveSearcher(), nil, logger),
		Contact:      contact.NewService(nil, sender, time.Minute, logger),
		CookieKey:    encryptcookie.GenerateKey(),
		RateLimit:    config.RateLimitConfig{Max: 3, Window: time.Hour},
		FeedCacheTTL: time.Hour,
		APICacheTTL:  time.Minute,
	}

	r := router.New(&config.Config{Site: config.SiteConfig{AllowOrigins: "*"}}, supplements)
	require.NoError(t, r.InitRoutes())
	return r.App(), sender
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	return do(t, app, httptest.NewRequest(http.MethodGet, target, nil))
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestBlogList(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/blog?lang=fr&limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)

	result := decode[blog.PaginationResult](t, body)
	assert.Equal(t, 2, result.TotalPosts)
	assert.Equal(t, 2, result.TotalPages)
	assert.True(t, result.HasNextPage)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "bonjour", result.Posts[0].Slug)

	resp, body = get(t, app, "/api/v1/blog?lang=en")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result = decode[blog.PaginationResult](t, body)
	require.Len(t, result.Posts, 2)
	assert.Equal(t, "hello", result.Posts[0].Slug)
	assert.Equal(t, "fr", result.Posts[1].Locale)
}

func TestBlogRejectsUnknownLanguage(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/blog?lang=de")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, body)["error"], "'de'")
}

func TestBlogPost(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/blog/hello?lang=en")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[blog.Post](t, body)
	assert.Equal(t, "Hello", got.Title)
	assert.Contains(t, got.Content, "<h2")

	resp, body = get(t, app, "/api/v1/blog/hello?lang=fr")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, body)["error"], "post not found")

	resp, body = get(t, app, "/api/v1/blog/bonjour/translations?lang=fr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"fr": "bonjour", "en": "hello"}, decode[map[string]string](t, body))
}

func TestBlogStaticRoutesWinOverSlug(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/blog/categories?lang=fr")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.ElementsMatch(t, []string{"Go", "Web"}, decode[[]string](t, body))

	resp, _ = get(t, app, "/api/v1/blog/search?lang=fr")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = get(t, app, "/api/v1/blog/search?lang=fr&q=suite")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decode[[]blog.ListItem](t, body)
	require.Len(t, found, 1)
	assert.Equal(t, "suite", found[0].Slug)
}

func TestBlogRelated(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/blog/suite/related?lang=fr")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	related := decode[[]blog.ListItem](t, body)
	require.Len(t, related, 1)
	assert.Equal(t, "bonjour", related[0].Slug)

	resp, body = get(t, app, "/api/v1/blog/unknown/related")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]blog.ListItem](t, body))
}

func TestProjectRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/api/v1/projects/stats?lang=en")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	stats := decode[projects.Stats](t, body)
	assert.Equal(t, 2, stats.TotalProjects)
	assert.Equal(t, 2, stats.ActiveProjects)

	resp, body = get(t, app, "/api/v1/projects/facets")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	facets := decode[map[string][]string](t, body)
	assert.Contains(t, facets["technologies"], "SvelteKit")
	assert.NotEmpty(t, facets["categories"])

	resp, body = get(t, app, "/api/v1/projects?lang=fr&tech=Laravel")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]projects.Project](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "phpip", list[0].Slug)

	resp, body = get(t, app, "/api/v1/projects/tanden-dash?lang=fr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[struct {
		Project projects.Project   `json:"project"`
		Similar []projects.Project `json:"similar"`
	}](t, body)
	assert.Equal(t, "Tableau de bord personnel.", detail.Project.Description)

	resp, _ = get(t, app, "/api/v1/projects/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeeds(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/rss.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, feed.MIMERSS, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, string(body), "<title>Blog EN</title>")
	assert.Contains(t, string(body), "https://example.com/en/blog/hello")

	resp, body = get(t, app, "/atom.xml?lang=fr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, feed.MIMEAtom, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, string(body), "https://example.com/blog/bonjour")

	resp, body = get(t, app, "/feed.json?lang=fr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://example.com/feed.json?lang=fr", decode[map[string]any](t, body)["feed_url"])

	resp, _ = get(t, app, "/feed.json?lang=it")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSitemap(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/sitemap.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "<loc>https://example.com/en/blog/hello</loc>")
	assert.NotContains(t, string(body), "brouillon")
}

func TestLegacyRedirects(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := get(t, app, "/en-US/blog")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/en/blog", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = get(t, app, "/fr-FR")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func challenge(t *testing.T, app *fiber.App) (contact.Challenge, *http.Cookie) {
	t.Helper()

	resp, body := get(t, app, "/api/contact/challenge")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))

	for _, cookie := range resp.Cookies() {
		if cookie.Name == contact.CookieName {
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
			assert.Equal(t, 60, cookie.MaxAge)
			return decode[contact.Challenge](t, body), cookie
		}
	}
	t.Fatalf("no %s cookie in response", contact.CookieName)
	return contact.Challenge{}, nil
}

func submit(t *testing.T, app *fiber.App, cookie *http.Cookie, ip string, payload map[string]any) (*http.Response, contact.Response) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(string(raw)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderXForwardedFor, ip)
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	resp, body := do(t, app, req)
	return resp, decode[contact.Response](t, body)
}

func clearsChallenge(resp *http.Response) bool {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == contact.CookieName && !cookie.Expires.IsZero() && cookie.Expires.Before(time.Now()) {
			return true
		}
	}
	return false
}

func message(answer any) map[string]any {
	return map[string]any{
		"name":       "Ada",
		"email":      "ada@example.com",
		"subject":    "Hello",
		"message":    "Nice site",
		"mathAnswer": answer,
	}
}

func TestContactRoundTrip(t *testing.T) {
	app, sender := newTestApp(t)

	c, cookie := challenge(t, app)
	resp, got := submit(t, app, cookie, "10.0.0.1", message(c.Answer()))
	require.Equal(t, http.StatusOK, resp.StatusCode, got.Error)
	assert.True(t, got.Success)
	assert.True(t, clearsChallenge(resp))
	assert.Equal(t, 1, sender.count())
}

func TestContactWrongAnswer(t *testing.T) {
	app, sender := newTestApp(t)

	c, cookie := challenge(t, app)
	resp, got := submit(t, app, cookie, "10.0.0.2", message(c.Answer()+1))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, contact.ErrKeyInvalidAnswer, got.Error)
	assert.True(t, clearsChallenge(resp))
	assert.Zero(t, sender.count())
}

func TestContactWithoutChallenge(t *testing.T) {
	app, _ := newTestApp(t)

	resp, got := submit(t, app, nil, "10.0.0.3", message(4))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, contact.ErrKeyVerificationExpired, got.Error)
	assert.False(t, clearsChallenge(resp))
}

func TestContactHoneypot(t *testing.T) {
	app, sender := newTestApp(t)

	payload := message(nil)
	payload["honeypot"] = "http://spam.example"
	resp, got := submit(t, app, nil, "10.0.0.4", payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, got.Success)
	assert.Zero(t, sender.count())
}

func TestContactValidation(t *testing.T) {
	app, _ := newTestApp(t)

	c, cookie := challenge(t, app)
	payload := message(c.Answer())
	payload["email"] = "not-an-email"
	resp, got := submit(t, app, cookie, "10.0.0.5", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, contact.ErrKeyValidation, got.Error)
	assert.Equal(t, []string{contact.ErrKeyEmailInvalid}, got.Errors)
}

func TestContactRateLimit(t *testing.T) {
	app, _ := newTestApp(t)

	for range 3 {
		resp, _ := submit(t, app, nil, "10.0.0.6", message(1))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, got := submit(t, app, nil, "10.0.0.6", message(1))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, contact.ErrKeyTooManyRequests, got.Error)

	resp, _ = submit(t, app, nil, "10.0.0.7", message(1))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContactMalformedBody(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, body := do(t, app, req)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, decode[contact.Response](t, body).Error)
}
