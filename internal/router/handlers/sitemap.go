package handlers

import (
	"fmt"
	"time"

	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/adeneu/portfolio-web/internal/seo"
	"github.com/gofiber/fiber/v2"
)

type SitemapHandler struct {
	router.BasicHandler
}

func init() {
	router.Routes = append(router.Routes, &SitemapHandler{})
}

func (r *SitemapHandler) Filter() (method string, path string) {
	return "GET", "/sitemap.xml"
}

func (r *SitemapHandler) ToCache() router.CacheSetting {
	return router.ByUrlOnly
}

func (r *SitemapHandler) CacheDuration(supplements *router.Supplements) time.Duration {
	return supplements.FeedCacheTTL
}

func (r *SitemapHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	body, err := seo.BuildSitemap(c.UserContext(), supplements.Blog, supplements.BaseURL, supplements.Logger).Generate()
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to generate sitemap: %w", err)
	}

	out.ContentType = seo.MIMESitemap
	out.Body = body
	return fiber.StatusOK, nil
}
