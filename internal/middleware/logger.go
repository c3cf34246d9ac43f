package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

type loggerKey struct{}

// Logger stores a logger tagged with the request id and route on the request
// context, then logs the finished request. Register it after RequestID.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		log := slog.Default().With(
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"route", c.Path(),
		)
		c.SetRequest(req.WithContext(context.WithValue(req.Context(), loggerKey{}, log)))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		level := slog.LevelDebug
		if status := c.Response().Status; status >= 500 {
			level = slog.LevelError
		}
		log.Log(req.Context(), level, "request",
			"method", req.Method,
			"uri", req.RequestURI,
			"status", c.Response().Status,
			"latency", time.Since(start),
		)
		return nil
	}
}

// FromContext returns the logger stored by Logger, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}
