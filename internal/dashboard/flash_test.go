package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSessionSecret = "a-very-secret-key-for-testing-!"

func flashContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	var c echo.Context
	handler := func(ctx echo.Context) error { c = ctx; return nil }
	session.Middleware(sessions.NewCookieStore([]byte(testSessionSecret)))(handler)(e.NewContext(req, rec))
	return c
}

func TestFlashMessages(t *testing.T) {
	t.Run("success is read once", func(t *testing.T) {
		c := flashContext()
		SetFlashSuccess(c, "Logged out")

		flashes := GetFlashData(c)
		assert.Equal(t, []string{"Logged out"}, flashes.Success)
		assert.Empty(t, flashes.Error)

		assert.Empty(t, GetFlashData(c).Success)
	})

	t.Run("error", func(t *testing.T) {
		c := flashContext()
		SetFlashError(c, "Invalid credentials")

		flashes := GetFlashData(c)
		assert.Equal(t, []string{"Invalid credentials"}, flashes.Error)
		assert.Empty(t, flashes.Success)
	})

	t.Run("nothing queued", func(t *testing.T) {
		flashes := GetFlashData(flashContext())
		assert.Empty(t, flashes.Success)
		assert.Empty(t, flashes.Error)
	})
}
