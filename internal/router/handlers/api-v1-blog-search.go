package handlers

import (
	"fmt"
	"strings"

	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/gofiber/fiber/v2"
)

type BlogSearchHandler struct {
	router.BasicHandler
}

func init() {
	router.Routes = append(router.Routes, &BlogSearchHandler{})
}

func (r *BlogSearchHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/blog/search"
}

func (r *BlogSearchHandler) ToCache() router.CacheSetting {
	return router.ByUrlAndQuery
}

func (r *BlogSearchHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *BlogSearchHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return fiber.StatusBadRequest, fmt.Errorf("query parameter 'q' is required")
	}

	posts, err := supplements.Blog.SearchPosts(c.UserContext(), query, lang)
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to search posts for '%s': %w", query, err)
	}

	out.JSON = posts
	return fiber.StatusOK, nil
}
