// Package dashboard serves the browser front-end: the home, login, polling,
// server-sent and web-socket pages, each driving the matching client.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/realtimehub/internal/auth"
	"github.com/nfrund/realtimehub/internal/chat"
	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/eventlog"
	"github.com/nfrund/realtimehub/internal/httpapi"
	"github.com/nfrund/realtimehub/internal/middleware"
	"github.com/nfrund/realtimehub/internal/polling"
	rhsession "github.com/nfrund/realtimehub/internal/session"
	"github.com/nfrund/realtimehub/internal/sse"
)

// Deps are the clients the dashboard drives.
type Deps struct {
	Sessions      *rhsession.Manager
	Auth          *auth.Client
	API           *httpapi.Client
	Poller        *polling.Poller
	PollInterval  time.Duration
	SSE           *sse.Client
	Log           *eventlog.Log
	Connector     *chat.Connector
	SessionSecret string
}

// Server holds the echo instance and the per-process page state. The
// session store is process-wide, so every browser shares one login, one
// stream and one chat socket.
type Server struct {
	E    *echo.Echo
	deps Deps

	// ctx bounds background work started by page visits.
	ctx      context.Context
	pollOnce sync.Once

	mu          sync.Mutex
	sseClientID string
	sseSelected []string

	// chatMu guards room and dialing only; it is never held across the
	// socket handshake. dialing is closed once an in-flight dial settles.
	chatMu  sync.Mutex
	room    *chat.Room
	dialing chan struct{}
}

// New creates a Server with its middleware and routes registered.
func New(ctx context.Context, deps Deps) *Server {
	if deps.PollInterval <= 0 {
		deps.PollInterval = polling.DefaultInterval
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)

	store := sessions.NewCookieStore([]byte(deps.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}
	e.Use(session.Middleware(store))

	s := &Server{
		E:           e,
		deps:        deps,
		ctx:         ctx,
		sseClientID: sse.DefaultClientID,
	}
	s.RegisterRoutes()
	return s
}

// RegisterRoutes sets up all the dashboard routes.
func (s *Server) RegisterRoutes() {
	public := middleware.RequirePublic(s.deps.Sessions)
	private := middleware.RequirePrivate(s.deps.Sessions)

	s.E.GET("/", s.home)
	s.E.GET("/login", s.loginGet, public)
	s.E.POST("/login", s.loginPost, public, middleware.LoginRateLimiter())
	s.E.POST("/logout", s.logout)

	s.E.GET("/polling", s.pollingPage)
	s.E.GET("/polling/snapshot", s.pollingSnapshot)

	sent := s.E.Group("/server-sent")
	sent.GET("", s.serverSentPage)
	sent.POST("/connect", s.sseConnect)
	sent.POST("/disconnect", s.sseDisconnect)
	sent.POST("/subscribe", s.sseSubscribe)
	sent.POST("/unsubscribe", s.sseUnsubscribe)
	sent.GET("/quotes", s.sseQuotes)
	sent.GET("/logs", s.sseLogs)

	ws := s.E.Group("/web-socket", private)
	ws.GET("", s.chatPage)
	ws.POST("/select", s.chatSelect)
	ws.POST("/send", s.chatSend)
	ws.GET("/messages", s.chatMessages)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}

// Start serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.closeChat(shutdownCtx)
	s.deps.SSE.Disconnect(shutdownCtx)
	slog.Info("Shutting down dashboard", "addr", addr)
	return s.E.Shutdown(shutdownCtx)
}

// OnSessionChange reacts to the session store being modified by another
// process: once the token is gone the chat socket is torn down.
func (s *Server) OnSessionChange(ctx context.Context) {
	if s.deps.Sessions.HasToken(ctx) {
		return
	}
	s.chatMu.Lock()
	active := s.room != nil || s.dialing != nil
	s.chatMu.Unlock()
	if active {
		slog.Info("Session cleared externally, closing chat socket")
		s.closeChat(ctx)
	}
}

func (s *Server) startPolling() {
	s.pollOnce.Do(func() {
		go func() {
			if err := s.deps.Poller.Run(s.ctx); err != nil {
				slog.Error("Polling stopped", "error", err)
			}
		}()
	})
}

// chatRoom returns the chat view state, connecting a socket when there is none
// or the previous one was dropped. Concurrent callers share one dial.
func (s *Server) chatRoom(ctx context.Context) (*chat.Room, error) {
	for {
		s.chatMu.Lock()
		if s.room != nil {
			if sock := s.deps.Connector.Socket(); sock != nil && !sock.Closed() {
				room := s.room
				s.chatMu.Unlock()
				return room, nil
			}
			s.room.Unbind()
			s.room = nil
		}
		wait := s.dialing
		if wait == nil {
			s.dialing = make(chan struct{})
			s.chatMu.Unlock()
			break
		}
		s.chatMu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, domain.NewError("dashboard.chat", domain.KindNetwork, ctx.Err())
		}
	}

	room, err := s.dialChat(ctx)

	s.chatMu.Lock()
	if err == nil {
		s.room = room
	}
	close(s.dialing)
	s.dialing = nil
	s.chatMu.Unlock()
	return room, err
}

func (s *Server) dialChat(ctx context.Context) (*chat.Room, error) {
	sess, ok, err := s.deps.Sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewError("dashboard.chat", domain.KindAuth, domain.ErrNoToken)
	}

	sock, err := s.deps.Connector.Connect(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	room := chat.NewRoom(s.deps.API, sess)
	room.Bind(sock)
	return room, nil
}

func (s *Server) closeChat(ctx context.Context) {
	s.chatMu.Lock()
	room := s.room
	s.room = nil
	s.chatMu.Unlock()

	if room != nil {
		room.Unbind()
		if err := s.deps.Sessions.ForgetName(ctx); err != nil {
			slog.Warn("Failed to clear display name", "error", err)
		}
	}
	if err := s.deps.Connector.Disconnect(); err != nil {
		slog.Warn("Failed to close chat socket", "error", err)
	}
}
