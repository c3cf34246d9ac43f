// Package sse consumes the quote stream at /sse/stream/{clientId} and
// manages its symbol subscriptions.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/eventlog"
	"github.com/nfrund/realtimehub/internal/httpapi"
	"github.com/nfrund/realtimehub/internal/quotes"
)

// Source is the event log source of every entry this package records.
const Source = "sse"

// DefaultClientID is the client ID offered before the user types one.
const DefaultClientID = "poc-client-001"

// Symbols are the symbols a user can pick from.
var Symbols = []string{"AAPL", "GOOGL", "MSFT"}

const (
	opConnect     = "sse.connect"
	opSubscribe   = "sse.subscribe"
	opUnsubscribe = "sse.unsubscribe"
)

type stream struct {
	clientID string
	cancel   context.CancelFunc
	body     io.ReadCloser
	done     chan struct{}
}

func (s *stream) close() {
	s.cancel()
	_ = s.body.Close()
}

// Client holds at most one open stream.
type Client struct {
	api      *httpapi.Client
	book     *quotes.Book
	sink     eventlog.Sink
	onMsg    func(domain.SSEMessage)
	onStatus func(domain.Status)

	mu     sync.RWMutex
	status domain.Status
	stream *stream
	// dial cancels the connect in flight, if any. gen moves on every
	// Connect and Disconnect so a superseded dial knows to back off.
	dial context.CancelFunc
	gen  uint64
}

// Option configures a Client.
type Option func(*Client)

// WithSink sends activity to an event log.
func WithSink(s eventlog.Sink) Option {
	return func(c *Client) { c.sink = s }
}

// WithBook stores price updates in b instead of a private book.
func WithBook(b *quotes.Book) Option {
	return func(c *Client) { c.book = b }
}

// OnMessage registers a callback for every decoded stream message.
func OnMessage(fn func(domain.SSEMessage)) Option {
	return func(c *Client) { c.onMsg = fn }
}

// OnStatus registers a callback for every status change.
func OnStatus(fn func(domain.Status)) Option {
	return func(c *Client) { c.onStatus = fn }
}

// New creates a disconnected Client.
func New(api *httpapi.Client, opts ...Option) *Client {
	c := &Client{
		api:    api,
		sink:   eventlog.Discard,
		status: domain.Status{Type: domain.StatusDisconnected, Message: "Disconnected"},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.book == nil {
		c.book = quotes.NewBook()
	}
	return c
}

// Connect opens the stream for clientID, closing any previous stream or
// pending connect first. It returns once the stream is open or has failed;
// messages are read in the background until Disconnect or a stream error.
func (c *Client) Connect(ctx context.Context, clientID string) error {
	if strings.TrimSpace(clientID) == "" {
		c.sink.Record(ctx, Source, eventlog.LevelError, "Please enter a client ID")
		return domain.NewError(opConnect, domain.KindPrecondition, domain.ErrNoClientID)
	}

	// The stream outlives the caller's request; Disconnect cancels it.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c.mu.Lock()
	prev := c.detachLocked()
	c.dial = cancel
	gen := c.gen
	st := c.setStatusLocked(domain.StatusConnecting, "Connecting...")
	c.mu.Unlock()

	c.notify(st)
	prev.wait()

	resp, err := c.api.R(streamCtx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache").
		Get("/sse/stream/" + url.PathEscape(clientID))

	var body io.ReadCloser
	if err == nil {
		body = resp.RawBody()
		contentType := resp.Header().Get("Content-Type")
		if resp.StatusCode() != 200 || !strings.HasPrefix(contentType, "text/event-stream") {
			err = fmt.Errorf("unexpected response: status %d, content type %q", resp.StatusCode(), contentType)
		}
	}

	c.mu.Lock()
	if c.gen != gen {
		// Disconnect or a newer Connect took over while dialling.
		c.mu.Unlock()
		cancel()
		if body != nil {
			_ = body.Close()
		}
		return domain.NewError(opConnect, domain.KindNetwork, context.Canceled)
	}
	c.dial = nil

	if err != nil {
		st := c.setStatusLocked(domain.StatusDisconnected, "Connection error")
		c.mu.Unlock()
		cancel()
		if body != nil {
			_ = body.Close()
		}
		err = httpapi.Network(opConnect, err)
		c.connectFailed(ctx, err)
		c.notify(st)
		return err
	}

	s := &stream{clientID: clientID, cancel: cancel, body: body, done: make(chan struct{})}
	c.stream = s
	st = c.setStatusLocked(domain.StatusConnected, "Connected")
	c.mu.Unlock()

	c.notify(st)
	c.sink.Record(ctx, Source, eventlog.LevelSuccess, "Connected to SSE stream with client ID: "+clientID)

	go c.read(context.WithoutCancel(ctx), s)
	return nil
}

func (c *Client) connectFailed(ctx context.Context, err error) {
	slog.Warn("SSE connect failed", "error", err)
	c.sink.Record(ctx, Source, eventlog.LevelError, "SSE connection error: "+domain.Message(err))
}

func (c *Client) read(ctx context.Context, s *stream) {
	defer close(s.done)

	r := NewReader(s.body)
	for {
		ev, err := r.Next()
		if err != nil {
			c.streamFailed(ctx, s, err)
			return
		}
		if ev.Event != "" && ev.Event != "message" {
			continue
		}

		var msg domain.SSEMessage
		if err := json.Unmarshal([]byte(ev.Data), &msg); err != nil {
			c.sink.Record(ctx, Source, eventlog.LevelError, "Error parsing message: "+err.Error())
			continue
		}
		c.handle(ctx, msg)
	}
}

// streamFailed handles the end of s. A stream that was already replaced or
// closed by Disconnect ends silently.
func (c *Client) streamFailed(ctx context.Context, s *stream, err error) {
	c.mu.Lock()
	if c.stream != s {
		c.mu.Unlock()
		return
	}
	c.stream = nil
	st := c.setStatusLocked(domain.StatusDisconnected, "Connection error")
	c.mu.Unlock()

	s.close()
	if errors.Is(err, io.EOF) {
		err = errors.New("stream closed by server")
	}
	slog.Warn("SSE stream ended", "clientID", s.clientID, "error", err)
	c.sink.Record(ctx, Source, eventlog.LevelError, "SSE connection error: "+err.Error())
	c.notify(st)
}

func (c *Client) handle(ctx context.Context, msg domain.SSEMessage) {
	switch msg.Type {
	case domain.SSEPriceUpdate:
		if err := c.book.HandleMessage(msg); err != nil {
			c.sink.Record(ctx, Source, eventlog.LevelError, "Error parsing message: "+domain.Message(err))
			return
		}
	case domain.SSEConnectionEstablished:
		id := msg.ClientID
		if id == "" {
			id = "unknown"
		}
		c.sink.Record(ctx, Source, eventlog.LevelInfo, "Connection established for client: "+id)
	}
	if c.onMsg != nil {
		c.onMsg(msg)
	}
}

// Disconnect closes the open stream or aborts a pending Connect, and reports
// disconnected straight away. It waits for the reader to stop, or for ctx.
// Calling it again is harmless.
func (c *Client) Disconnect(ctx context.Context) {
	c.mu.Lock()
	prev := c.detachLocked()
	st := c.setStatusLocked(domain.StatusDisconnected, "Disconnected")
	c.mu.Unlock()

	c.notify(st)
	c.sink.Record(ctx, Source, eventlog.LevelInfo, "Disconnected from SSE stream")

	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
		}
	}
}

// detachLocked cancels any pending dial, closes the current stream and
// returns it so the caller can wait for its reader outside the lock.
func (c *Client) detachLocked() *stream {
	c.gen++
	if c.dial != nil {
		c.dial()
		c.dial = nil
	}
	s := c.stream
	c.stream = nil
	if s != nil {
		s.close()
	}
	return s
}

func (s *stream) wait() {
	if s != nil {
		<-s.done
	}
}

type subscription struct {
	op      string
	path    string
	empty   string
	ok      string
	failed  string
	errored string
}

var (
	subscribe = subscription{
		op:      opSubscribe,
		path:    "/sse/subscribe/",
		empty:   "Please select stock symbols to subscribe to",
		ok:      "Subscribed to: ",
		failed:  "Subscription failed: ",
		errored: "Subscription error: ",
	}
	unsubscribe = subscription{
		op:      opUnsubscribe,
		path:    "/sse/unsubscribe/",
		empty:   "Please select stock symbols to unsubscribe from",
		ok:      "Unsubscribed from: ",
		failed:  "Unsubscription failed: ",
		errored: "Unsubscription error: ",
	}
)

// Subscribe asks the server to start sending updates for symbols.
func (c *Client) Subscribe(ctx context.Context, clientID string, symbols []string) error {
	return c.send(ctx, subscribe, clientID, symbols)
}

// Unsubscribe asks the server to stop sending updates for symbols.
func (c *Client) Unsubscribe(ctx context.Context, clientID string, symbols []string) error {
	return c.send(ctx, unsubscribe, clientID, symbols)
}

func (c *Client) send(ctx context.Context, sub subscription, clientID string, symbols []string) error {
	if !c.Connected() || len(symbols) == 0 {
		c.sink.Record(ctx, Source, eventlog.LevelError, sub.empty)
		cause := domain.ErrNoSymbols
		if !c.Connected() {
			cause = domain.ErrNotConnected
		}
		return domain.NewError(sub.op, domain.KindPrecondition, cause)
	}

	resp, err := c.api.R(ctx).
		SetBody(domain.SubscriptionRequest{Symbols: symbols}).
		Post(sub.path + url.PathEscape(clientID))
	if err != nil {
		c.sink.Record(ctx, Source, eventlog.LevelError, sub.errored+err.Error())
		return httpapi.Network(sub.op, err)
	}

	// The body is read whatever the status; only {success} decides the outcome.
	var result domain.SubscriptionResult
	if err := httpapi.Decode(sub.op, resp, &result); err != nil {
		c.sink.Record(ctx, Source, eventlog.LevelError, sub.errored+domain.Message(err))
		return err
	}
	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = "Unknown error"
		}
		c.sink.Record(ctx, Source, eventlog.LevelError, sub.failed+msg)
		return domain.NewError(sub.op, domain.KindRejected, errors.New(msg))
	}

	c.sink.Record(ctx, Source, eventlog.LevelSuccess, sub.ok+strings.Join(symbols, ", "))
	return nil
}

func (c *Client) setStatusLocked(t domain.StatusType, msg string) domain.Status {
	c.status = domain.Status{Type: t, Message: msg}
	return c.status
}

func (c *Client) notify(st domain.Status) {
	if c.onStatus != nil {
		c.onStatus(st)
	}
}

// Status returns the current connection status.
func (c *Client) Status() domain.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Connected reports whether a stream is open.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stream != nil
}

// ClientID returns the ID of the open stream, or "" when disconnected.
func (c *Client) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stream == nil {
		return ""
	}
	return c.stream.clientID
}

// Quotes returns the latest quote per symbol.
func (c *Client) Quotes() []domain.StockQuote {
	return c.book.All()
}
