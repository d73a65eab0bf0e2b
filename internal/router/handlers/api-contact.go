package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/adeneu/portfolio-web/internal/contact"
	"github.com/adeneu/portfolio-web/internal/router"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func init() {
	router.Routes = append(router.Routes, &ContactChallengeHandler{}, &ContactHandler{})
}

func challengeCookie(supplements *router.Supplements, value string, expires time.Time, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     contact.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   supplements.SecureCookie,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

type ContactChallengeHandler struct {
	router.BasicHandler
}

func (r *ContactChallengeHandler) Filter() (method string, path string) {
	return "GET", "/api/contact/challenge"
}

func (r *ContactChallengeHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	challenge, value := supplements.Contact.IssueChallenge()
	ttl := supplements.Contact.ChallengeTTL()

	c.Cookie(challengeCookie(supplements, value, time.Now().Add(ttl), int(ttl.Seconds())))
	c.Set(fiber.HeaderCacheControl, "no-store")

	out.JSON = challenge
	return fiber.StatusOK, nil
}

type ContactHandler struct {
	router.BasicHandler
}

func (r *ContactHandler) Filter() (method string, path string) {
	return "POST", "/api/contact"
}

// Middleware limits submissions per client address.
func (r *ContactHandler) Middleware(supplements *router.Supplements) []fiber.Handler {
	return []fiber.Handler{limiter.New(limiter.Config{
		Max:        supplements.RateLimit.Max,
		Expiration: supplements.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(contact.Response{Error: contact.ErrKeyTooManyRequests})
		},
	})}
}

func (r *ContactHandler) Render(c *fiber.Ctx, supplements *router.Supplements, lang string, out *router.Output) (statusCode int, err error) {
	var result contact.Result

	req := contact.Request{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		supplements.Logger.Debug("unreadable contact request", slog.String("error", err.Error()))
		result = contact.Unexpected()
	} else {
		result = supplements.Contact.Handle(c.UserContext(), req, c.Cookies(contact.CookieName), c.IP())
	}

	if result.ClearCookie {
		c.Cookie(challengeCookie(supplements, "", time.Unix(0, 0), -1))
	}

	out.JSON = result.Response
	return result.Status, nil
}
