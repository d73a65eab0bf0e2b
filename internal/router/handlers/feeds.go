package handlers

import (
	"fmt"
	"time"

	"github.com/adeneu/portfolio-web/internal/blog"
	"github.com/adeneu/portfolio-web/internal/feed"
	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/gofiber/fiber/v2"
)

type FeedHandler struct {
	router.BasicHandler
	format feed.Format
}

func init() {
	for _, format := range feed.Formats {
		router.Routes = append(router.Routes, &FeedHandler{format: format})
	}
}

func (r *FeedHandler) Filter() (method string, path string) {
	return "GET", r.format.Path
}

func (r *FeedHandler) ToCache() router.CacheSetting {
	return router.ByUrlAndQuery
}

func (r *FeedHandler) CacheDuration(supplements *router.Supplements) time.Duration {
	return supplements.FeedCacheTTL
}

func (r *FeedHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

// DefaultLang serves the English feed unless ?lang= says otherwise.
func (r *FeedHandler) DefaultLang(supplements *router.Supplements) string {
	return blog.LocaleEN
}

func (r *FeedHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	localization, ok := supplements.Localization[lang]
	if !ok {
		return fiber.StatusInternalServerError, fmt.Errorf("no localization for '%s'", lang)
	}

	meta := feed.Metadata{
		Title:       localization.Feed.Title,
		Description: localization.Feed.Description,
		Author:      supplements.Author,
		Language:    lang,
	}.Addresses(supplements.BaseURL, r.format)

	body, err := supplements.Feeds.Generate(c.UserContext(), r.format, meta)
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to generate feed '%s': %w", r.format.Path, err)
	}

	out.ContentType = r.format.ContentType
	out.Body = body
	return fiber.StatusOK, nil
}
