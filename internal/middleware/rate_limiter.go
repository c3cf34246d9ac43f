package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// LoginAttemptsPerSecond is both the sustained rate and the burst allowed per IP.
const LoginAttemptsPerSecond = 5

// LoginRateLimiter throttles login submissions per client IP so a stuck
// form cannot hammer the backend's token issuer.
func LoginRateLimiter() echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(LoginAttemptsPerSecond),

		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			slog.Warn("Login attempt throttled", "ip", identifier)
			return c.String(http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
