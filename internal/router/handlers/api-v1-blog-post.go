package handlers

import (
	"errors"
	"fmt"

	"github.com/adeneu/portfolio-web/internal/blog"
	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/gofiber/fiber/v2"
)

const defaultRelatedLimit = 3

func init() {
	router.Routes = append(router.Routes, &BlogPostHandler{}, &BlogTranslationsHandler{}, &BlogRelatedHandler{})
}

type BlogPostHandler struct {
	router.BasicHandler
}

func (r *BlogPostHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/blog/:slug"
}

func (r *BlogPostHandler) ToCache() router.CacheSetting {
	return router.ByUrlOnly
}

func (r *BlogPostHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *BlogPostHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	post, err := supplements.Blog.GetPostBySlug(c.UserContext(), c.Params("slug"), lang)
	if errors.Is(err, blog.ErrPostNotFound) {
		return fiber.StatusNotFound, err
	}
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to load post: %w", err)
	}

	out.JSON = post
	return fiber.StatusOK, nil
}

type BlogTranslationsHandler struct {
	router.BasicHandler
}

func (r *BlogTranslationsHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/blog/:slug/translations"
}

func (r *BlogTranslationsHandler) ToCache() router.CacheSetting {
	return router.ByUrlOnly
}

func (r *BlogTranslationsHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *BlogTranslationsHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	translations, err := supplements.Blog.GetPostTranslations(c.UserContext(), c.Params("slug"), lang)
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to load translations: %w", err)
	}

	out.JSON = translations
	return fiber.StatusOK, nil
}

type BlogRelatedHandler struct {
	router.BasicHandler
}

func (r *BlogRelatedHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/blog/:slug/related"
}

func (r *BlogRelatedHandler) ToCache() router.CacheSetting {
	return router.ByUrlAndQuery
}

func (r *BlogRelatedHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *BlogRelatedHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	related, err := supplements.Blog.RelatedPosts(c.UserContext(), c.Params("slug"), lang, min(queryInt(c, "limit", defaultRelatedLimit), maxPageSize))
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to load related posts: %w", err)
	}

	out.JSON = related
	return fiber.StatusOK, nil
}
