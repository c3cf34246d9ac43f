// Package chat is the client side of the chat socket: the connection, the
// history endpoint and the per-view conversation state.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/nfrund/realtimehub/internal/domain"
)

// Socket events.
const (
	EventUsers   = "users"
	EventMessage = "message"
)

const (
	opDial = "chat.dial"
	opEmit = "chat.emit"
)

// Envelope is the frame exchanged in both directions on the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives the payload of one event.
type Handler func(data json.RawMessage)

// Socket is one authenticated connection. Incoming frames are dispatched to
// the handlers registered for their event, in arrival order, from a single
// read goroutine.
type Socket struct {
	conn *websocket.Conn
	url  string

	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
	err      error

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Dial opens a socket at url, sending token as a bearer credential.
func Dial(ctx context.Context, url, token string) (*Socket, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, domain.NewError(opDial, domain.KindNetwork, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	s := &Socket{
		conn:     conn,
		url:      url,
		handlers: make(map[string][]Handler),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.readLoop(readCtx)

	slog.Info("Chat socket connected", "url", url)
	return s, nil
}

// On adds a handler for event.
func (s *Socket) On(event string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], h)
}

// Off removes every handler for event.
func (s *Socket) Off(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, event)
}

// Emit sends event with payload encoded as JSON.
func (s *Socket) Emit(ctx context.Context, event string, payload any) error {
	if s.Closed() {
		return domain.NewError(opEmit, domain.KindPrecondition, domain.ErrNotConnected)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.NewError(opEmit, domain.KindMalformed, err)
	}
	if err := wsjson.Write(ctx, s.conn, Envelope{Event: event, Data: data}); err != nil {
		return domain.NewError(opEmit, domain.KindNetwork, err)
	}
	return nil
}

func (s *Socket) readLoop(ctx context.Context) {
	defer close(s.done)

	for {
		_, raw, err := s.conn.Read(ctx)
		if err != nil {
			s.markClosed(err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			slog.Warn("Dropping malformed chat frame", "error", err)
			continue
		}

		s.mu.RLock()
		handlers := append([]Handler(nil), s.handlers[env.Event]...)
		s.mu.RUnlock()

		for _, h := range handlers {
			h(env.Data)
		}
	}
}

func (s *Socket) markClosed(err error) {
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	if !wasClosed {
		s.err = err
	}
	s.mu.Unlock()

	if wasClosed {
		return
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		slog.Info("Chat socket closed", "url", s.url)
	default:
		slog.Warn("Chat socket dropped", "url", s.url, "error", err)
	}
}

// Close performs the closing handshake and waits for the read loop to exit.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		peerClosed := s.closed
		s.closed = true
		s.mu.Unlock()

		err = s.conn.Close(websocket.StatusNormalClosure, "")
		s.cancel()
		<-s.done

		if peerClosed || errors.Is(err, net.ErrClosed) || websocket.CloseStatus(err) != -1 {
			err = nil
		}
		slog.Debug("Chat socket closed locally", "url", s.url)
	})
	return err
}

// Closed reports whether the socket was closed by either side.
func (s *Socket) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Err returns the error that ended the read loop, if the peer closed first.
func (s *Socket) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Done is closed once the read loop has exited.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}
