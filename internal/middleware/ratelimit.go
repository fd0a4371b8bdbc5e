package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/deanbaranes/bpark-server/internal/config"
)

// NewRateLimiter returns a fixed-window per-client rate limiter
// backed by Redis. The window key is the client identity (subject
// when authenticated, remote IP otherwise); the first request of a
// window sets the key's expiry and subsequent requests only
// increment. When Redis is unavailable the limiter fails open:
// availability of the gate matters more than precise throttling.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := clientID(c)
			key := fmt.Sprintf("%s:%s", cfg.Prefix, id)
			ctx := c.Request().Context()

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if n == 1 {
				rdb.Expire(ctx, key, cfg.Window)
			}
			if n > int64(cfg.Limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}

// clientID identifies the caller for rate limiting: the JWT subject
// when present, the remote IP otherwise.
func clientID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		return fmt.Sprintf("u:%v", v)
	}
	return "ip:" + c.RealIP()
}
