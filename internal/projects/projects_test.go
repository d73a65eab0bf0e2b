package projects

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const testData = `
items:
  - title: Tanden Dash
    href: https://github.com/AxelDeneu/tanden-dash
    github: https://github.com/AxelDeneu/tanden-dash
    dates:
      en: July 2024 - Present
      fr: Juillet 2024 - Présent
    active: true
    featured: true
    description:
      en: Personal dashboard for home use.
      fr: Tableau de bord personnel.
    technologies: [SvelteKit, Prisma, SQLite, TailwindCSS]
  - title: phpIP
    href: https://github.com/jjdejong/phpip
    dates: September 2024 - Present
    active: true
    description: A simple IP management tool written in PHP.
    technologies: [Laravel, PHP, Bootstrap]
  - title: Old Tool
    dates: "2019"
    active: false
    description: Command line helper.
    technologies: [Go, SQLite]
`

func newTestRepository(t *testing.T) *StaticRepository {
	t.Helper()
	repo, err := NewStaticRepository([]byte(testData))
	require.NoError(t, err)
	return repo
}

type stubStats struct {
	calls int
	stats *GitHubStats
	err   error
}

func (s *stubStats) GetStats(context.Context, string) (*GitHubStats, error) {
	s.calls++
	return s.stats, s.err
}

func (s *stubStats) GetBulkStats(ctx context.Context, urls []string) map[string]*GitHubStats {
	out := make(map[string]*GitHubStats)
	for _, u := range urls {
		if stats, err := s.GetStats(ctx, u); err == nil {
			out[u] = stats
		}
	}
	return out
}

func TestStaticRepository(t *testing.T) {
	repo := newTestRepository(t)

	en := repo.GetAllProjects("en")
	require.Len(t, en, 3)
	assert.Equal(t, "project-0", en[0].ID)
	assert.Equal(t, "tanden-dash", en[0].Slug)
	assert.Equal(t, CategoryFrontend, en[0].Category)
	assert.Equal(t, "July 2024 - Present", en[0].Dates)
	assert.Equal(t, CategoryBackend, en[1].Category)
	assert.Equal(t, "September 2024 - Present", en[1].Dates)
	assert.Equal(t, CategoryFullstack, en[2].Category)

	fr := repo.GetAllProjects("fr")
	assert.Equal(t, "Tableau de bord personnel.", fr[0].Description)
	assert.Equal(t, "A simple IP management tool written in PHP.", fr[1].Description)

	_, err := repo.GetProjectBySlug("missing", "en")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	assert.Equal(t, []string{"Bootstrap", "Go", "Laravel", "PHP", "Prisma", "SQLite", "SvelteKit", "TailwindCSS"}, repo.GetTechnologies())
	assert.Equal(t, []string{CategoryBackend, CategoryFrontend, CategoryFullstack}, repo.GetCategories())
}

func TestStaticRepositoryRejectsUntitledProjects(t *testing.T) {
	_, err := NewStaticRepository([]byte("items:\n  - dates: x\n"))
	assert.Error(t, err)
}

func TestFilters(t *testing.T) {
	repo := newTestRepository(t)
	active := true
	inactive := false

	byTech := repo.GetFilteredProjects(Filters{Technologies: []string{"sqlite"}}, "en")
	assert.Len(t, byTech, 2)

	combined := repo.GetFilteredProjects(Filters{Technologies: []string{"sqlite"}, Active: &active}, "en")
	require.Len(t, combined, 1)
	assert.Equal(t, "Tanden Dash", combined[0].Title)

	assert.Len(t, repo.GetFilteredProjects(Filters{Active: &inactive}, "en"), 3)
	assert.Len(t, repo.GetFilteredProjects(Filters{Categories: []string{CategoryBackend, CategoryFullstack}}, "en"), 2)
	assert.Len(t, repo.GetFilteredProjects(Filters{}, "en"), 3)
}

func TestCompositeFilter(t *testing.T) {
	projects := newTestRepository(t).GetAllProjects("en")

	c := NewCompositeFilter()
	c.Add("status", StatusFilter{ActiveOnly: true})
	c.Add("category", CategoryFilter{Categories: []string{CategoryFrontend}})
	assert.Len(t, c.Apply(projects), 1)

	c.Add("category", CategoryFilter{Categories: []string{CategoryBackend}})
	result := c.Apply(projects)
	require.Len(t, result, 1)
	assert.Equal(t, "phpIP", result[0].Title)

	c.Remove("category")
	assert.Len(t, c.Apply(projects), 2)

	c.Clear()
	assert.Len(t, c.Apply(projects), 3)
}

func TestBleveSearcher(t *testing.T) {
	projects := newTestRepository(t).GetAllProjects("en")
	searcher := NewBleveSearcher()

	results, err := searcher.Search(projects, "tanden")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Tanden Dash", results[0].Project.Title)

	results, err = searcher.Search(projects, "dashbord")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Tanden Dash", results[0].Project.Title)

	results, err = searcher.Search(projects, "lara")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "phpIP", results[0].Project.Title)

	results, err = searcher.Search(projects, "  ")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = searcher.Search(projects, "zzzzzz")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestServiceProjectBySlugWithStats(t *testing.T) {
	stats := &stubStats{stats: &GitHubStats{Stars: 42, Forks: 7, Language: "TypeScript", Topics: []string{"svelte"}}}
	service := NewService(newTestRepository(t), NewBleveSearcher(), stats, nil)

	project, err := service.GetProjectBySlug(context.Background(), "tanden-dash", "en")
	require.NoError(t, err)
	assert.Equal(t, 42, project.Stars)
	assert.Equal(t, "TypeScript", project.Language)

	project, err = service.GetProjectBySlug(context.Background(), "phpip", "en")
	require.NoError(t, err)
	assert.Zero(t, project.Stars)
	assert.Equal(t, 1, stats.calls)
}

func TestServiceDegradesWhenStatsFail(t *testing.T) {
	service := NewService(newTestRepository(t), NewBleveSearcher(), &stubStats{err: errors.New("rate limited")}, nil)

	project, err := service.GetProjectBySlug(context.Background(), "tanden-dash", "en")
	require.NoError(t, err)
	assert.Zero(t, project.Stars)

	summary := service.GetProjectStats(context.Background(), "en")
	assert.Equal(t, 3, summary.TotalProjects)
	assert.Equal(t, 2, summary.ActiveProjects)
	assert.Zero(t, summary.TotalStars)
}

func TestServiceStatsAndSimilar(t *testing.T) {
	stats := &stubStats{stats: &GitHubStats{Stars: 10, Forks: 2}}
	service := NewService(newTestRepository(t), NewBleveSearcher(), stats, nil)

	summary := service.GetProjectStats(context.Background(), "en")
	assert.Equal(t, 10, summary.TotalStars)
	assert.Equal(t, 2, summary.TotalForks)
	assert.Contains(t, summary.TechnologiesUsed, "SvelteKit")

	tanden, err := service.GetProjectBySlug(context.Background(), "tanden-dash", "en")
	require.NoError(t, err)
	similar := service.SimilarProjects(tanden, "en")
	require.Len(t, similar, 1)
	assert.Equal(t, "Old Tool", similar[0].Title)

	filtered, err := service.GetFilteredProjects(Filters{Search: "laravel"}, "en")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "phpIP", filtered[0].Title)
}

func TestParseRepo(t *testing.T) {
	owner, repo, ok := ParseRepo("https://github.com/AxelDeneu/tanden-dash.git")
	require.True(t, ok)
	assert.Equal(t, "AxelDeneu", owner)
	assert.Equal(t, "tanden-dash", repo)

	_, _, ok = ParseRepo("https://gitlab.com/a/b")
	assert.False(t, ok)
}

func TestGitHubStatsProviderCaches(t *testing.T) {
	ln := fasthttputil.NewInmemoryListener()
	defer ln.Close()

	var requests atomic.Int32
	go func() {
		_ = fasthttp.Serve(ln, func(ctx *fasthttp.RequestCtx) {
			requests.Add(1)
			if string(ctx.Path()) != "/repos/AxelDeneu/tanden-dash" {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				return
			}
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"stargazers_count":12,"forks_count":3,"subscribers_count":4,"open_issues_count":1,"language":"Svelte","topics":["dashboard"],"pushed_at":"2024-05-01T10:00:00Z"}`)
		})
	}()

	provider, err := NewGitHubStatsProvider(GitHubStatsProviderOptions{
		APIBase: "http://github.test",
		Client: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
	})
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	stats, err := provider.GetStats(ctx, "https://github.com/AxelDeneu/tanden-dash")
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Stars)
	assert.Equal(t, 4, stats.Watchers)
	assert.Equal(t, []string{"dashboard"}, stats.Topics)
	assert.Equal(t, "2024-05-01T10:00:00Z", stats.LastUpdate)

	_, err = provider.GetStats(ctx, "https://github.com/AxelDeneu/tanden-dash")
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())

	bulk := provider.GetBulkStats(ctx, []string{
		"https://github.com/AxelDeneu/tanden-dash",
		"https://github.com/someone/missing",
		"not a url",
	})
	assert.Len(t, bulk, 1)
	assert.Contains(t, bulk, "https://github.com/AxelDeneu/tanden-dash")
}
