// Package polling refreshes a weather snapshot from GET /api-polling on a
// fixed interval.
package polling

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/eventlog"
	"github.com/nfrund/realtimehub/internal/httpapi"
)

// DefaultInterval is the fixed refresh period.
const DefaultInterval = 5 * time.Second

// Source is the event log source of every entry this package records.
const Source = "polling"

const (
	opFetch  = "polling.fetch"
	pathPoll = "/api-polling"
)

// State is what a view renders: a loading flag, the last error, and the
// last good snapshot (nil until the first success).
type State struct {
	Snapshot *domain.WeatherSnapshot
	Loading  bool
	Err      string
}

// Poller owns the snapshot. Fetches are started on a ticker anchored at Run,
// so a slow response never delays the next one and requests may overlap.
type Poller struct {
	api      *httpapi.Client
	interval time.Duration
	sink     eventlog.Sink
	onUpdate func(domain.WeatherSnapshot)

	mu       sync.RWMutex
	snapshot *domain.WeatherSnapshot
	loading  bool
	err      string

	inflight sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithSink sends activity to an event log.
func WithSink(s eventlog.Sink) Option {
	return func(p *Poller) { p.sink = s }
}

// OnUpdate registers a callback for every successful fetch.
func OnUpdate(fn func(domain.WeatherSnapshot)) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// New creates a Poller in the loading state.
func New(api *httpapi.Client, opts ...Option) *Poller {
	p := &Poller{
		api:      api,
		interval: DefaultInterval,
		sink:     eventlog.Discard,
		loading:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches immediately and then once per interval until ctx is canceled.
// Cancellation stops the ticker only: fetches already in flight are not
// aborted and still update the snapshot when they resolve.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	fetchCtx := context.WithoutCancel(ctx)
	p.spawn(fetchCtx)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Polling stopped", "interval", p.interval)
			return nil
		case <-ticker.C:
			p.spawn(fetchCtx)
		}
	}
}

func (p *Poller) spawn(ctx context.Context) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		_ = p.Refresh(ctx)
	}()
}

// Wait blocks until every fetch started by Run has resolved.
func (p *Poller) Wait() {
	p.inflight.Wait()
}

// Refresh performs one fetch. On failure the previous snapshot is kept.
func (p *Poller) Refresh(ctx context.Context) error {
	snapshot, err := p.fetch(ctx)

	p.mu.Lock()
	p.loading = false
	if err != nil {
		p.err = domain.Message(err)
	} else {
		p.snapshot = &snapshot
		p.err = ""
	}
	p.mu.Unlock()

	if err != nil {
		slog.Warn("Failed to fetch latest data", "error", err)
		p.sink.Record(ctx, Source, eventlog.LevelError, "Failed to fetch latest data")
		return err
	}

	p.sink.Record(ctx, Source, eventlog.LevelInfo, "Data updated")
	if p.onUpdate != nil {
		p.onUpdate(snapshot)
	}
	return nil
}

func (p *Poller) fetch(ctx context.Context) (domain.WeatherSnapshot, error) {
	var snapshot domain.WeatherSnapshot

	resp, err := p.api.R(ctx).Get(pathPoll)
	if err != nil {
		return snapshot, httpapi.Network(opFetch, err)
	}
	if resp.IsError() {
		return snapshot, httpapi.Status(opFetch, domain.KindNetwork, resp, "Failed to fetch weather data")
	}
	if err := httpapi.Decode(opFetch, resp, &snapshot); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

// State returns a copy of the current view state.
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := State{Loading: p.loading, Err: p.err}
	if p.snapshot != nil {
		snap := *p.snapshot
		s.Snapshot = &snap
	}
	return s
}
