package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/valyala/fasthttp"
)

var githubRepoRe = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)

type GitHubStats struct {
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Watchers    int      `json:"watchers"`
	OpenIssues  int      `json:"openIssues"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	LastUpdate  string   `json:"lastUpdate"`
	Description string   `json:"description,omitempty"`
}

type StatsProvider interface {
	GetStats(ctx context.Context, repoURL string) (*GitHubStats, error)
	GetBulkStats(ctx context.Context, repoURLs []string) map[string]*GitHubStats
}

// ParseRepo extracts owner and repository names from a GitHub URL.
func ParseRepo(repoURL string) (owner, repo string, ok bool) {
	m := githubRepoRe.FindStringSubmatch(repoURL)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

type githubRepository struct {
	StargazersCount  int      `json:"stargazers_count"`
	ForksCount       int      `json:"forks_count"`
	SubscribersCount int      `json:"subscribers_count"`
	OpenIssuesCount  int      `json:"open_issues_count"`
	Language         string   `json:"language"`
	Topics           []string `json:"topics"`
	PushedAt         string   `json:"pushed_at"`
	Description      string   `json:"description"`
}

type GitHubStatsProviderOptions struct {
	APIBase  string
	Token    string
	CacheTTL time.Duration
	Timeout  time.Duration
	Client   *fasthttp.Client
	Logger   *slog.Logger
}

// GitHubStatsProvider reads repository statistics from the GitHub REST API
// and keeps them for CacheTTL per owner/repo.
type GitHubStatsProvider struct {
	apiBase  string
	token    string
	cacheTTL time.Duration
	timeout  time.Duration
	client   *fasthttp.Client
	cache    *ristretto.Cache[string, *GitHubStats]
	logger   *slog.Logger
}

func NewGitHubStatsProvider(opts GitHubStatsProviderOptions) (*GitHubStatsProvider, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *GitHubStats]{
		NumCounters:        1e4,
		MaxCost:            1 << 10,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fail to initialize github stats cache: %w", err)
	}

	p := &GitHubStatsProvider{
		apiBase:  strings.TrimRight(opts.APIBase, "/"),
		token:    opts.Token,
		cacheTTL: opts.CacheTTL,
		timeout:  opts.Timeout,
		client:   opts.Client,
		cache:    cache,
		logger:   opts.Logger,
	}
	if p.apiBase == "" {
		p.apiBase = "https://api.github.com"
	}
	if p.cacheTTL == 0 {
		p.cacheTTL = time.Hour
	}
	if p.timeout == 0 {
		p.timeout = 10 * time.Second
	}
	if p.client == nil {
		p.client = &fasthttp.Client{Name: "portfolio-web"}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

func (p *GitHubStatsProvider) GetStats(ctx context.Context, repoURL string) (*GitHubStats, error) {
	owner, repo, ok := ParseRepo(repoURL)
	if !ok {
		return nil, fmt.Errorf("'%s' is not a github repository url", repoURL)
	}
	cacheKey := owner + "/" + repo

	if stats, ok := p.cache.Get(cacheKey); ok && stats != nil {
		return stats, nil
	}

	stats, err := p.fetch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	p.cache.SetWithTTL(cacheKey, stats, 1, p.cacheTTL)
	p.cache.Wait()
	return stats, nil
}

// GetBulkStats fetches stats for every URL, leaving out the ones that fail.
func (p *GitHubStatsProvider) GetBulkStats(ctx context.Context, repoURLs []string) map[string]*GitHubStats {
	results := make(map[string]*GitHubStats, len(repoURLs))
	for _, repoURL := range repoURLs {
		stats, err := p.GetStats(ctx, repoURL)
		if err != nil {
			p.logger.Warn("failed to fetch github stats",
				slog.String("repo", repoURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		results[repoURL] = stats
	}
	return results
}

func (p *GitHubStatsProvider) Close() {
	p.cache.Close()
}

func (p *GitHubStatsProvider) fetch(ctx context.Context, owner, repo string) (*GitHubStats, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/repos/%s/%s", p.apiBase, owner, repo))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if p.token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+p.token)
	}

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := p.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("fail to request github repository %s/%s: %w", owner, repo, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("github answered %d for %s/%s", resp.StatusCode(), owner, repo)
	}

	payload := githubRepository{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("fail to decode github repository %s/%s: %w", owner, repo, err)
	}

	topics := payload.Topics
	if topics == nil {
		topics = []string{}
	}
	return &GitHubStats{
		Stars:       payload.StargazersCount,
		Forks:       payload.ForksCount,
		Watchers:    payload.SubscribersCount,
		OpenIssues:  payload.OpenIssuesCount,
		Language:    payload.Language,
		Topics:      topics,
		LastUpdate:  payload.PushedAt,
		Description: payload.Description,
	}, nil
}
