package handlers

import (
	"fmt"

	"github.com/adeneu/portfolio-web/internal/blog"
	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/gofiber/fiber/v2"
)

type BlogListHandler struct {
	router.BasicHandler
}

func init() {
	router.Routes = append(router.Routes, &BlogListHandler{}, &BlogCategoriesHandler{})
}

func (r *BlogListHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/blog"
}

func (r *BlogListHandler) ToCache() router.CacheSetting {
	return router.ByUrlAndQuery
}

func (r *BlogListHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *BlogListHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	result, err := supplements.Blog.GetPaginatedPosts(c.UserContext(), blog.PaginationParams{
		Page:     queryInt(c, "page", 1),
		Limit:    min(queryInt(c, "limit", 10), maxPageSize),
		Category: c.Query("category"),
		Language: lang,
	})
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to list posts: %w", err)
	}

	out.JSON = result
	return fiber.StatusOK, nil
}

type BlogCategoriesHandler struct {
	router.BasicHandler
}

func (r *BlogCategoriesHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/blog/categories"
}

func (r *BlogCategoriesHandler) ToCache() router.CacheSetting {
	return router.ByUrlAndQuery
}

func (r *BlogCategoriesHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *BlogCategoriesHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	categories, err := supplements.Blog.GetCategories(c.UserContext(), lang)
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to list categories: %w", err)
	}

	out.JSON = categories
	return fiber.StatusOK, nil
}
