package dashboard

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"

	"github.com/nfrund/realtimehub/internal/dashboard/views"
	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/middleware"
	"github.com/nfrund/realtimehub/internal/sse"
)

func render(c echo.Context, status int, node g.Node) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return node.Render(c.Response().Writer)
}

func (s *Server) page(c echo.Context, title string, body g.Node) error {
	ctx := c.Request().Context()
	sess, loggedIn, err := s.deps.Sessions.Current(ctx)
	if err != nil {
		middleware.FromContext(ctx).Warn("Failed to read session", "error", err)
	}
	viewer := views.Viewer{LoggedIn: loggedIn, Username: sess.Username}
	return render(c, http.StatusOK, views.Page(title, viewer, GetFlashData(c), body))
}

func (s *Server) home(c echo.Context) error {
	return s.page(c, "Home", views.Home())
}

func (s *Server) loginGet(c echo.Context) error {
	return s.page(c, "Login", views.Login(""))
}

func (s *Server) loginPost(c echo.Context) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	if _, err := s.deps.Auth.Login(c.Request().Context(), email, password); err != nil {
		SetFlashError(c, domain.Message(err))
		return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
	}

	SetFlashSuccess(c, "Signed in as "+email)
	return c.Redirect(http.StatusSeeOther, "/web-socket")
}

func (s *Server) logout(c echo.Context) error {
	ctx := c.Request().Context()
	s.closeChat(ctx)
	if err := s.deps.Auth.Logout(ctx); err != nil {
		middleware.FromContext(ctx).Error("Failed to clear session", "error", err)
		SetFlashError(c, "Could not log out.")
		return c.Redirect(http.StatusSeeOther, middleware.HomePath)
	}
	SetFlashSuccess(c, "You have been logged out.")
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}

func (s *Server) pollingPage(c echo.Context) error {
	s.startPolling()
	return s.page(c, "Polling", views.Polling(s.deps.Poller.State(), s.deps.PollInterval))
}

func (s *Server) pollingSnapshot(c echo.Context) error {
	s.startPolling()
	return render(c, http.StatusOK, views.WeatherPanel(s.deps.Poller.State()))
}

func (s *Server) serverSentData() views.ServerSentData {
	s.mu.Lock()
	clientID := s.sseClientID
	selected := append([]string(nil), s.sseSelected...)
	s.mu.Unlock()

	if id := s.deps.SSE.ClientID(); id != "" {
		clientID = id
	}
	return views.ServerSentData{
		ClientID:  clientID,
		Status:    s.deps.SSE.Status(),
		Connected: s.deps.SSE.Connected(),
		Symbols:   sse.Symbols,
		Selected:  selected,
		Quotes:    s.deps.SSE.Quotes(),
		Logs:      s.deps.Log.Entries(sse.Source),
	}
}

func (s *Server) serverSentPage(c echo.Context) error {
	return s.page(c, "Server Sent", views.ServerSent(s.serverSentData()))
}

// The SSE actions record their own outcome in the event log, so handlers
// only log the returned error and redirect back to the page.

func (s *Server) sseConnect(c echo.Context) error {
	clientID := c.FormValue("client_id")
	s.mu.Lock()
	s.sseClientID = clientID
	s.mu.Unlock()

	ctx := c.Request().Context()
	if err := s.deps.SSE.Connect(ctx, clientID); err != nil {
		middleware.FromContext(ctx).Warn("SSE connect failed", "error", err)
	}
	return c.Redirect(http.StatusSeeOther, "/server-sent")
}

func (s *Server) sseDisconnect(c echo.Context) error {
	s.deps.SSE.Disconnect(c.Request().Context())
	return c.Redirect(http.StatusSeeOther, "/server-sent")
}

func (s *Server) sseSubscribe(c echo.Context) error {
	return s.sseSubscription(c, s.deps.SSE.Subscribe)
}

func (s *Server) sseUnsubscribe(c echo.Context) error {
	return s.sseSubscription(c, s.deps.SSE.Unsubscribe)
}

func (s *Server) sseSubscription(c echo.Context, call func(context.Context, string, []string) error) error {
	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	symbols := params["symbols"]

	s.mu.Lock()
	s.sseSelected = append([]string(nil), symbols...)
	s.mu.Unlock()

	clientID := s.deps.SSE.ClientID()
	if clientID == "" {
		clientID = params.Get("client_id")
	}

	ctx := c.Request().Context()
	if err := call(ctx, clientID, symbols); err != nil {
		middleware.FromContext(ctx).Warn("SSE subscription change failed", "error", err)
	}
	return c.Redirect(http.StatusSeeOther, "/server-sent")
}

func (s *Server) sseQuotes(c echo.Context) error {
	return render(c, http.StatusOK, views.QuoteGrid(s.deps.SSE.Quotes()))
}

func (s *Server) sseLogs(c echo.Context) error {
	return render(c, http.StatusOK, views.EventLogs(s.deps.Log.Entries(sse.Source)))
}

func (s *Server) chatPage(c echo.Context) error {
	room, err := s.chatRoom(c.Request().Context())
	if err != nil {
		middleware.FromContext(c.Request().Context()).Warn("Chat unavailable", "error", err)
		SetFlashError(c, "Chat unavailable: "+domain.Message(err))
		return s.page(c, "WebSocket", views.Chat(views.ChatData{}))
	}

	selected, hasSelected := room.Selected()
	return s.page(c, "WebSocket", views.Chat(views.ChatData{
		Username:    room.Username(),
		DisplayName: room.DisplayName(),
		Initials:    room.Initials(),
		Contacts:    room.Contacts(),
		Selected:    selected,
		HasSelected: hasSelected,
		Messages:    room.Messages(),
	}))
}

func (s *Server) chatSelect(c echo.Context) error {
	ctx := c.Request().Context()
	room, err := s.chatRoom(ctx)
	if err != nil {
		SetFlashError(c, "Chat unavailable: "+domain.Message(err))
		return c.Redirect(http.StatusSeeOther, "/web-socket")
	}

	email := c.FormValue("email")
	for _, contact := range room.Contacts() {
		if contact.Email != email {
			continue
		}
		if err := room.Select(ctx, contact); err != nil {
			middleware.FromContext(ctx).Warn("Error fetching chat history", "error", err)
		}
		return c.Redirect(http.StatusSeeOther, "/web-socket")
	}

	SetFlashError(c, "Unknown contact: "+email)
	return c.Redirect(http.StatusSeeOther, "/web-socket")
}

func (s *Server) chatSend(c echo.Context) error {
	ctx := c.Request().Context()
	room, err := s.chatRoom(ctx)
	if err == nil {
		err = room.Send(ctx, c.FormValue("message"))
	}
	if err != nil {
		SetFlashError(c, "Message not sent: "+domain.Message(err))
	}
	return c.Redirect(http.StatusSeeOther, "/web-socket")
}

func (s *Server) chatMessages(c echo.Context) error {
	room, err := s.chatRoom(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, domain.Message(err))
	}
	return render(c, http.StatusOK, views.Messages(room.Messages(), room.Username()))
}
