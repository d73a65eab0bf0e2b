package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/adeneu/portfolio-web/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/redirect"
)

type CacheSetting int

const (
	Disabled CacheSetting = iota
	ByUrlOnly
	ByUrlAndQuery
)

type LangSetting int

const (
	NotRequired LangSetting = iota
	InQuery
)

var (
	Routes = make([]Route, 0)
)

// legacyRedirects send the old locale-prefixed addresses to their current
// location.
var legacyRedirects = map[string]string{
	"^/fr-FR/*": "/$1",
	"^/fr-FR":   "/",
	"^/en-US/*": "/en/$1",
	"^/en-US":   "/en",
}

type Route interface {
	Filter() (method string, path string)
	ToCache() CacheSetting
	CacheDuration(supplements *Supplements) time.Duration
	ToValidateLang() LangSetting
	DefaultLang(supplements *Supplements) string
	Middleware(supplements *Supplements) []fiber.Handler
	Render(c *fiber.Ctx, supplements *Supplements, lang string, out *Output) (statusCode int, err error)
}

// Output is what a route produced. JSON, when set, is encoded in place of
// Body.
type Output struct {
	ContentType string
	Body        []byte
	JSON        any
}

// CachedPage is a rendered response kept in the page cache.
type CachedPage struct {
	ContentType string
	Body        []byte
}

type Router struct {
	supplements *Supplements
	app         *fiber.App
	cfg         *config.Config
}

func New(cfg *config.Config, supplements *Supplements) *Router {
	enablePrintRoutes := false
	if cfg.LogLevel <= slog.LevelDebug {
		enablePrintRoutes = true
	}

	app := fiber.New(fiber.Config{
		EnablePrintRoutes:     enablePrintRoutes,
		ProxyHeader:           "X-Forwarded-For",
		DisableStartupMessage: true,
	})

	app.Use(redirect.New(redirect.Config{
		Rules:      legacyRedirects,
		StatusCode: fiber.StatusMovedPermanently,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Site.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: supplements.CookieKey,
	}))

	return &Router{supplements: supplements, app: app, cfg: cfg}
}

func (r *Router) App() *fiber.App {
	return r.app
}

// InitRoutes mounts every registered route. Routes with path parameters are
// mounted after the static ones so that "/x/stats" wins over "/x/:slug".
func (r *Router) InitRoutes() error {
	ordered := slices.Clone(Routes)
	slices.SortStableFunc(ordered, func(a, b Route) int {
		_, pathA := a.Filter()
		_, pathB := b.Filter()
		return strings.Count(pathA, ":") - strings.Count(pathB, ":")
	})

	for _, route := range ordered {
		method, match := route.Filter()
		if method == "" || match == "" {
			return fmt.Errorf("route %T has an empty filter", route)
		}

		currentRoute := route
		handlers := append(route.Middleware(r.supplements), func(c *fiber.Ctx) error {
			return r.serve(c, currentRoute)
		})
		r.app.Add(method, match, handlers...)
	}

	if r.cfg.Site.StaticDir != "" {
		r.app.Static("/", r.cfg.Site.StaticDir)
	}

	return nil
}

func (r *Router) serve(c *fiber.Ctx, route Route) error {
	method, match := route.Filter()
	queryString := string(c.Request().URI().QueryString())

	lang, err := r.getAndValidateLang(c, route)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cacheKey := ""
	trimmedPath := strings.Trim(c.Path(), "/")
	switch route.ToCache() {
	case ByUrlOnly:
		cacheKey = fmt.Sprintf("%s.%s.%s", method, lang, trimmedPath)
	case ByUrlAndQuery:
		cacheKey = fmt.Sprintf("%s.%s.%s.%s", method, lang, trimmedPath, queryString)
	}

	if route.ToCache() != Disabled {
		if val, ok := r.supplements.PageCache.Get(cacheKey); ok && val.Body != nil {
			c.Set(fiber.HeaderContentType, val.ContentType)
			return c.Status(fiber.StatusOK).Send(val.Body)
		}
	}

	out := &Output{}
	statusCode, err := route.Render(c, r.supplements, lang, out)
	if err != nil {
		logLevel := slog.LevelError
		if statusCode < fiber.StatusInternalServerError {
			logLevel = slog.LevelDebug
		}
		r.supplements.Logger.Log(c.Context(), logLevel, "failed to finish rendering a page",
			slog.Int("status_code", statusCode),
			slog.String("method", method),
			slog.String("path", c.Path()),
			slog.String("match", match),
			slog.String("query", queryString),
			slog.String("error", err.Error()),
		)
		return c.Status(statusCode).JSON(fiber.Map{"error": err.Error()})
	}

	if out.JSON != nil {
		if out.Body, err = json.Marshal(out.JSON); err != nil {
			r.supplements.Logger.Error("failed to encode response",
				slog.String("method", method),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to encode response"})
		}
		if out.ContentType == "" {
			out.ContentType = fiber.MIMEApplicationJSONCharsetUTF8
		}
	}
	if out.ContentType == "" {
		out.ContentType = fiber.MIMETextPlainCharsetUTF8
	}

	if statusCode >= 200 && statusCode < 300 && route.ToCache() != Disabled {
		r.supplements.PageCache.SetWithTTL(cacheKey, CachedPage{ContentType: out.ContentType, Body: out.Body},
			int64(len(out.Body)), route.CacheDuration(r.supplements))
	}

	c.Set(fiber.HeaderContentType, out.ContentType)
	return c.Status(statusCode).Send(out.Body)
}

func (r *Router) getAndValidateLang(c *fiber.Ctx, route Route) (string, error) {
	switch route.ToValidateLang() {
	case NotRequired:
		return "", nil
	case InQuery:
		lang := c.Query("lang", route.DefaultLang(r.supplements))
		if r.supplements.IsAvailableLanguage(lang) {
			return lang, nil
		}
		return "", fmt.Errorf("lang value is invalid: '%s' is not considered an available language", lang)
	}
	return "", fmt.Errorf("unknown language setting %d", route.ToValidateLang())
}

func (r *Router) Listen(endpoint string) error {
	if err := r.app.Listen(endpoint); err != nil {
		return fmt.Errorf("error while running fiber server: %w", err)
	}
	return nil
}

func (r *Router) Close() (err error) {
	allErrors := make([]error, 0)
	if err = r.app.Shutdown(); err != nil {
		allErrors = append(allErrors, fmt.Errorf("fail to shutdown fiber server: %w", err))
	}
	if err = r.supplements.Close(); err != nil {
		allErrors = append(allErrors, err)
	}
	return errors.Join(allErrors...)
}
