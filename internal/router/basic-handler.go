package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type BasicHandler struct{}

var _ Route = &BasicHandler{}

func (r *BasicHandler) Filter() (method string, path string) {
	panic("handler did not implement Filter method")
}

func (r *BasicHandler) ToCache() CacheSetting {
	return Disabled
}

func (r *BasicHandler) CacheDuration(supplements *Supplements) time.Duration {
	return supplements.APICacheTTL
}

func (r *BasicHandler) ToValidateLang() LangSetting {
	return NotRequired
}

func (r *BasicHandler) DefaultLang(supplements *Supplements) string {
	return supplements.DefaultLanguage()
}

func (r *BasicHandler) Middleware(supplements *Supplements) []fiber.Handler {
	return nil
}

func (r *BasicHandler) Render(c *fiber.Ctx, supplements *Supplements, lang string, out *Output) (statusCode int, err error) {
	panic("handler did not implement Render method")
}
