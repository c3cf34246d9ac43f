package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nfrund/realtimehub/internal/domain"
)

// Connector owns the process's chat socket. At most one socket is active:
// Connect closes the previous one before dialing.
type Connector struct {
	url string

	mu     sync.Mutex
	socket *Socket
	// dial aborts the handshake in flight; gen tells a superseded dial
	// that its result is no longer wanted.
	dial context.CancelFunc
	gen  uint64
}

// NewConnector creates a Connector dialing url.
func NewConnector(url string) *Connector {
	return &Connector{url: url}
}

// Connect replaces the active socket with a new one authenticated by token.
// The handshake stops when ctx is canceled or Disconnect is called; the
// returned socket does not depend on ctx.
func (c *Connector) Connect(ctx context.Context, token string) (*Socket, error) {
	if token == "" {
		return nil, domain.NewError(opDial, domain.KindAuth, domain.ErrNoToken)
	}

	dialCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	c.mu.Lock()
	prev := c.detachLocked()
	c.dial = cancel
	gen := c.gen
	c.mu.Unlock()
	closeSocket(prev)

	s, err := Dial(dialCtx, c.url, token)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		cancel()
		closeSocket(s)
		return nil, domain.NewError(opDial, domain.KindNetwork, context.Canceled)
	}
	c.dial = nil
	if err != nil {
		cancel()
		return nil, err
	}
	c.socket = s
	return s, nil
}

// Disconnect closes the active socket and aborts a handshake in progress.
func (c *Connector) Disconnect() error {
	c.mu.Lock()
	s := c.detachLocked()
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Close()
}

func (c *Connector) detachLocked() *Socket {
	c.gen++
	if c.dial != nil {
		c.dial()
		c.dial = nil
	}
	s := c.socket
	c.socket = nil
	return s
}

func closeSocket(s *Socket) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		slog.Warn("Closing previous chat socket", "error", err)
	}
}

// Socket returns the active socket, or nil.
func (c *Connector) Socket() *Socket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socket
}
