package blog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/adeneu/portfolio-web/internal/content"
	"golang.org/x/text/cases"
)

// DocumentError records a document skipped during a scan.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err.Error())
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Repository answers post queries by scanning the content source on every
// call.
type Repository struct {
	source    content.Source
	processor *Processor
	logger    *slog.Logger
}

func NewRepository(source content.Source, processor *Processor, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{source: source, processor: processor, logger: logger}
}

// LoadAllGroups reads every document and groups translations by slug.
// Documents that fail to read or parse are logged and skipped.
func (r *Repository) LoadAllGroups(ctx context.Context) (*Groups, error) {
	groups, failures, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, failure := range failures {
		r.logger.Warn("skipping content document",
			slog.String("path", failure.Path),
			slog.String("error", failure.Err.Error()),
		)
	}
	return groups, nil
}

// Check scans the source and reports every document that could not be
// loaded.
func (r *Repository) Check(ctx context.Context) ([]*DocumentError, error) {
	_, failures, err := r.scan(ctx)
	return failures, err
}

func (r *Repository) scan(ctx context.Context) (*Groups, []*DocumentError, error) {
	paths, err := r.source.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to list content documents: %w", err)
	}
	slices.Sort(paths)

	groups := newGroups()
	failures := make([]*DocumentError, 0)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		raw, err := r.source.Read(ctx, p)
		if err != nil {
			failures = append(failures, &DocumentError{Path: p, Err: err})
			continue
		}

		locale, base := LocaleFromPath(p)
		processed, err := r.processor.Process(raw, base)
		if err != nil {
			failures = append(failures, &DocumentError{Path: p, Err: err})
			continue
		}

		groups.add(&Post{
			Metadata: processed.Metadata,
			Content:  processed.Content,
			Excerpt:  processed.Excerpt,
			Locale:   locale,
			Path:     p,
		})
	}

	return groups, failures, nil
}

// GetAllPosts lists one published post per group, preferring lang and
// falling back to fr then en, newest first.
func (r *Repository) GetAllPosts(ctx context.Context, lang string) ([]ListItem, error) {
	groups, err := r.LoadAllGroups(ctx)
	if err != nil {
		return nil, err
	}

	posts := make([]ListItem, 0, groups.Len())
	for _, group := range groups.All() {
		post, ok := group.Preferred(lang)
		if !ok || !post.Published {
			continue
		}
		posts = append(posts, post.listItem(lang))
	}

	slices.SortStableFunc(posts, newestFirst)
	return posts, nil
}

// GetPostBySlug finds the post written in lang whose slug resolves to slug
// for that language. There is no fallback to other locales.
func (r *Repository) GetPostBySlug(ctx context.Context, slug, lang string) (*Post, error) {
	groups, err := r.LoadAllGroups(ctx)
	if err != nil {
		return nil, err
	}

	for _, group := range groups.All() {
		post, ok := group.Post(lang)
		if ok && post.Slug.Resolve(lang) == slug {
			return post, nil
		}
	}
	return nil, fmt.Errorf("%w: '%s' (%s)", ErrPostNotFound, slug, lang)
}

func (r *Repository) GetPostsByCategory(ctx context.Context, category, lang string) ([]ListItem, error) {
	posts, err := r.GetAllPosts(ctx, lang)
	if err != nil {
		return nil, err
	}
	return filterByCategory(posts, category), nil
}

func (r *Repository) GetPaginatedPosts(ctx context.Context, params PaginationParams) (*PaginationResult, error) {
	page, limit := params.Page, params.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	lang := params.Language
	if lang == "" {
		lang = DefaultLocale
	}

	posts, err := r.GetAllPosts(ctx, lang)
	if err != nil {
		return nil, err
	}
	if params.Category != "" {
		posts = filterByCategory(posts, params.Category)
	}

	total := len(posts)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	return &PaginationResult{
		Posts:       posts[start:end],
		TotalPosts:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

// GetCategories returns the sorted distinct categories of published posts.
func (r *Repository) GetCategories(ctx context.Context, lang string) ([]string, error) {
	posts, err := r.GetAllPosts(ctx, lang)
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0)
	for _, post := range posts {
		categories = append(categories, post.Metadata.Categories...)
	}
	slices.Sort(categories)
	return slices.Compact(categories), nil
}

// SearchPosts matches query case-insensitively against titles, descriptions
// and categories.
func (r *Repository) SearchPosts(ctx context.Context, query, lang string) ([]ListItem, error) {
	posts, err := r.GetAllPosts(ctx, lang)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(query)
	contains := func(s string) bool {
		return strings.Contains(fold.String(s), needle)
	}

	results := make([]ListItem, 0)
	for _, post := range posts {
		if contains(post.Metadata.Title) ||
			contains(post.Metadata.Description) ||
			slices.ContainsFunc(post.Metadata.Categories, contains) {
			results = append(results, post)
		}
	}
	return results, nil
}

// GetPostTranslations maps each locale of the group containing slug to the
// slug of its translation. A post matches when its slug resolved for lang
// equals slug. Unknown slugs yield an empty map.
func (r *Repository) GetPostTranslations(ctx context.Context, slug, lang string) (map[string]string, error) {
	groups, err := r.LoadAllGroups(ctx)
	if err != nil {
		return nil, err
	}

	translations := make(map[string]string)
	for _, group := range groups.All() {
		matched := false
		for _, post := range group.Posts {
			if post.Slug.Resolve(lang) == slug {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for locale, post := range group.Posts {
			translations[locale] = post.Slug.Resolve(locale)
		}
		return translations, nil
	}
	return translations, nil
}

func filterByCategory(posts []ListItem, category string) []ListItem {
	filtered := make([]ListItem, 0, len(posts))
	for _, post := range posts {
		if post.Metadata.HasCategory(category) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}
