package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Redirect targets of the two guards.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// TokenSource reports whether a session token is stored.
type TokenSource interface {
	HasToken(ctx context.Context) bool
}

// Private allows access only when a token is present; otherwise it names
// LoginPath as the redirect. Presence alone decides, the token is never validated.
func Private(ctx context.Context, tokens TokenSource) (redirect string, allowed bool) {
	if tokens.HasToken(ctx) {
		return "", true
	}
	return LoginPath, false
}

// Public allows access only when no token is present; otherwise it names HomePath.
func Public(ctx context.Context, tokens TokenSource) (redirect string, allowed bool) {
	if tokens.HasToken(ctx) {
		return HomePath, false
	}
	return "", true
}

// RequirePrivate protects routes that need a logged-in user.
func RequirePrivate(tokens TokenSource) echo.MiddlewareFunc {
	return guard(tokens, Private)
}

// RequirePublic protects routes that only make sense logged out, like the login page.
func RequirePublic(tokens TokenSource) echo.MiddlewareFunc {
	return guard(tokens, Public)
}

func guard(tokens TokenSource, check func(context.Context, TokenSource) (string, bool)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if redirect, ok := check(c.Request().Context(), tokens); !ok {
				return c.Redirect(http.StatusSeeOther, redirect)
			}
			return next(c)
		}
	}
}
