package handlers

import (
	"errors"
	"fmt"

	"github.com/adeneu/portfolio-web/internal/projects"
	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/gofiber/fiber/v2"
)

func init() {
	router.Routes = append(router.Routes,
		&ProjectsHandler{},
		&ProjectFacetsHandler{},
		&ProjectStatsHandler{},
		&ProjectHandler{},
	)
}

type ProjectsHandler struct {
	router.BasicHandler
}

func (r *ProjectsHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/projects"
}

func (r *ProjectsHandler) ToCache() router.CacheSetting {
	return router.ByUrlAndQuery
}

func (r *ProjectsHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *ProjectsHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	filtered, err := supplements.Projects.GetFilteredProjects(projects.Filters{
		Technologies: queryList(c, "tech"),
		Categories:   queryList(c, "category"),
		Active:       queryBool(c, "active"),
		Search:       c.Query("search"),
	}, lang)
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to filter projects: %w", err)
	}

	out.JSON = supplements.Projects.EnhanceWithStats(c.UserContext(), filtered)
	return fiber.StatusOK, nil
}

type ProjectFacetsHandler struct {
	router.BasicHandler
}

func (r *ProjectFacetsHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/projects/facets"
}

func (r *ProjectFacetsHandler) ToCache() router.CacheSetting {
	return router.ByUrlOnly
}

func (r *ProjectFacetsHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	out.JSON = fiber.Map{
		"technologies": supplements.Projects.GetTechnologies(),
		"categories":   supplements.Projects.GetCategories(),
	}
	return fiber.StatusOK, nil
}

type ProjectStatsHandler struct {
	router.BasicHandler
}

func (r *ProjectStatsHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/projects/stats"
}

func (r *ProjectStatsHandler) ToCache() router.CacheSetting {
	return router.ByUrlAndQuery
}

func (r *ProjectStatsHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *ProjectStatsHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	out.JSON = supplements.Projects.GetProjectStats(c.UserContext(), lang)
	return fiber.StatusOK, nil
}

type ProjectHandler struct {
	router.BasicHandler
}

type projectResponse struct {
	Project projects.Project   `json:"project"`
	Similar []projects.Project `json:"similar"`
}

func (r *ProjectHandler) Filter() (method string, path string) {
	return "GET", "/api/v1/projects/:slug"
}

func (r *ProjectHandler) ToCache() router.CacheSetting {
	return router.ByUrlAndQuery
}

func (r *ProjectHandler) ToValidateLang() router.LangSetting {
	return router.InQuery
}

func (r *ProjectHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	project, err := supplements.Projects.GetProjectBySlug(c.UserContext(), c.Params("slug"), lang)
	if errors.Is(err, projects.ErrProjectNotFound) {
		return fiber.StatusNotFound, err
	}
	if err != nil {
		return fiber.StatusInternalServerError, fmt.Errorf("failed to load project: %w", err)
	}

	out.JSON = projectResponse{
		Project: project,
		Similar: supplements.Projects.SimilarProjects(project, lang),
	}
	return fiber.StatusOK, nil
}
