package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/adeneu/portfolio-web/config"
	"github.com/adeneu/portfolio-web/internal/blog"
	"github.com/adeneu/portfolio-web/internal/contact"
	"github.com/adeneu/portfolio-web/internal/content"
	"github.com/adeneu/portfolio-web/internal/contentwatch"
	"github.com/adeneu/portfolio-web/internal/feed"
	"github.com/adeneu/portfolio-web/internal/mailer"
	"github.com/adeneu/portfolio-web/internal/markdown"
	"github.com/adeneu/portfolio-web/internal/projects"
	"github.com/adeneu/portfolio-web/locale"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
)

type Supplements struct {
	Logger             *slog.Logger
	BaseURL            string
	Author             string
	AvailableLanguages []config.AvailableLanguageConfig
	Localization       map[string]*locale.LocaleConfig
	PageCache          *ristretto.Cache[string, CachedPage]
	Blog               *blog.Repository
	Feeds              *feed.Generator
	Projects           *projects.Service
	Contact            *contact.Service
	CookieKey          string
	SecureCookie       bool
	RateLimit          config.RateLimitConfig
	FeedCacheTTL       time.Duration
	APICacheTTL        time.Duration

	closers []func() error
}

func NewPageCache() (*ristretto.Cache[string, CachedPage], error) {
	pageCache, err := ristretto.NewCache(&ristretto.Config[string, CachedPage]{
		NumCounters: 1e6,     // 1,000,000
		MaxCost:     1 << 27, // 128 MB
		BufferItems: 64,      // number of keys per Get buffer.
	})
	if err != nil {
		return nil, fmt.Errorf("fail to initialize page cache: %w", err)
	}
	return pageCache, nil
}

// NewSupplements builds every service the routes depend on.
func NewSupplements(ctx context.Context, cfg *config.Config) (_ *Supplements, err error) {
	supplements := &Supplements{
		Logger:             slog.Default(),
		BaseURL:            cfg.BaseURL,
		Author:             cfg.Site.Author,
		AvailableLanguages: cfg.AvailableLanguages,
		CookieKey:          cfg.Contact.CookieKey,
		SecureCookie:       cfg.Contact.SecureCookie,
		RateLimit:          cfg.Contact.RateLimit,
		FeedCacheTTL:       cfg.Site.FeedCacheTTL,
		APICacheTTL:        cfg.Site.APICacheTTL,
	}
	defer func() {
		if err != nil {
			supplements.Close()
		}
	}()

	if supplements.CookieKey == "" {
		supplements.CookieKey = encryptcookie.GenerateKey()
		slog.Warn("no contact cookie key configured, generated one for this process only")
	}

	supplements.Localization, err = locale.InitAll(cfg.LocalePath, cfg.AvailableLanguages)
	if err != nil {
		return nil, err
	}

	supplements.PageCache, err = NewPageCache()
	if err != nil {
		return nil, err
	}
	supplements.closers = append(supplements.closers, func() error {
		supplements.PageCache.Close()
		return nil
	})

	supplements.Blog, err = NewBlogRepository(ctx, cfg, supplements.Logger)
	if err != nil {
		return nil, err
	}
	supplements.Feeds = feed.NewGenerator(supplements.Blog)

	projectRepository, err := projects.LoadStaticRepository(cfg.Projects.DataFile)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize projects: %w", err)
	}
	stats, err := projects.NewGitHubStatsProvider(projects.GitHubStatsProviderOptions{
		APIBase:  cfg.Projects.GitHub.APIBase,
		Token:    cfg.Projects.GitHub.Token,
		CacheTTL: cfg.Projects.GitHub.CacheTTL,
		Timeout:  cfg.Projects.GitHub.Timeout,
		Logger:   supplements.Logger,
	})
	if err != nil {
		return nil, err
	}
	supplements.closers = append(supplements.closers, func() error {
		stats.Close()
		return nil
	})
	supplements.Projects = projects.NewService(projectRepository, projects.NewBleveSearcher(), stats, supplements.Logger)

	store, err := contact.OpenSQLiteStore(cfg.Contact.Db.Cfg.DSN, []byte(cfg.Contact.Salt))
	if err != nil {
		return nil, fmt.Errorf("fail to initialize contact store: %w", err)
	}
	supplements.closers = append(supplements.closers, store.Close)

	contactMailer, err := mailer.NewMailer(&cfg.Contact.Mail, os.DirFS(cfg.Contact.TemplatesPath), supplements.Localization, supplements.Logger)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize mailer: %w", err)
	}
	supplements.Contact = contact.NewService(store, contactMailer, cfg.Contact.ChallengeTTL, supplements.Logger)

	if cfg.Content.Watch {
		watchDir := ""
		if cfg.Content.Storage.Type == "fs" {
			watchDir = cfg.Content.Storage.FS.Root
		}
		watcher, err := contentwatch.New(ctx, supplements.Blog, contentwatch.Options{
			Interval: cfg.Content.WatchInterval,
			Dir:      watchDir,
			OnChange: func([]string) { supplements.PageCache.Clear() },
			Logger:   supplements.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("fail to initialize content watcher: %w", err)
		}
		supplements.closers = append(supplements.closers, watcher.Close)
	}

	return supplements, nil
}

// NewBlogRepository opens the configured content source behind a blog
// repository rendering with the configured markdown options.
func NewBlogRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*blog.Repository, error) {
	source, err := content.NewSource(ctx, &cfg.Content)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize content source: %w", err)
	}

	renderer := markdown.NewRenderer(markdown.Options{
		Classes:       cfg.Markdown.Classes,
		ExternalLinks: cfg.Markdown.ExternalLinks,
	})
	return blog.NewRepository(source, blog.NewProcessor(renderer, blog.WithProcessorLogger(logger)), logger), nil
}

// DefaultLanguage is the first configured language.
func (s *Supplements) DefaultLanguage() string {
	if len(s.AvailableLanguages) == 0 {
		return blog.DefaultLocale
	}
	return s.AvailableLanguages[0].Name
}

func (s *Supplements) IsAvailableLanguage(lang string) bool {
	for _, availableLang := range s.AvailableLanguages {
		if availableLang.Name == lang {
			return true
		}
	}
	return false
}

// Close releases the services in reverse order of creation.
func (s *Supplements) Close() error {
	allErrors := make([]error, 0)
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			allErrors = append(allErrors, err)
		}
	}
	s.closers = nil
	return errors.Join(allErrors...)
}
