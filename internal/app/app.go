// Package app wires configuration, stores and clients into a samber/do
// injector shared by the CLI commands and the dashboard.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/samber/do/v2"

	"github.com/nfrund/realtimehub/internal/auth"
	"github.com/nfrund/realtimehub/internal/chat"
	"github.com/nfrund/realtimehub/internal/config"
	"github.com/nfrund/realtimehub/internal/eventlog"
	"github.com/nfrund/realtimehub/internal/httpapi"
	"github.com/nfrund/realtimehub/internal/polling"
	"github.com/nfrund/realtimehub/internal/pubsub"
	"github.com/nfrund/realtimehub/internal/session"
	"github.com/nfrund/realtimehub/internal/sse"
)

// InitMessage seeds the server-sent event log.
const InitMessage = `SSE POC Client initialized. Click "Connect" to start receiving real-time updates.`

// App owns the injector and everything it created that needs closing.
type App struct {
	Config   *config.Config
	injector *do.RootScope
	ctx      context.Context

	mu      sync.Mutex
	closers []io.Closer
}

// New registers every provider. Services are created lazily on first use;
// ctx bounds background consumers such as the event log.
func New(ctx context.Context, cfg *config.Config) *App {
	a := &App{Config: cfg, injector: do.New(), ctx: ctx}
	i := a.injector

	do.ProvideValue(i, cfg)
	do.Provide(i, a.provideStore)
	do.Provide(i, func(i do.Injector) (*session.Manager, error) {
		store, err := do.Invoke[session.Store](i)
		if err != nil {
			return nil, err
		}
		return session.NewManager(store), nil
	})
	do.Provide(i, func(i do.Injector) (*httpapi.Client, error) {
		return httpapi.New(do.MustInvoke[*config.Config](i).APIURL), nil
	})
	do.Provide(i, a.provideBus)
	do.Provide(i, func(i do.Injector) (eventlog.Sink, error) {
		bus, err := do.Invoke[*pubsub.WatermillBus](i)
		if err != nil {
			return nil, err
		}
		return eventlog.NewBusSink(bus), nil
	})
	do.Provide(i, a.provideLog)
	do.Provide(i, func(i do.Injector) (*auth.Client, error) {
		return auth.NewClient(do.MustInvoke[*httpapi.Client](i), do.MustInvoke[*session.Manager](i)), nil
	})
	do.Provide(i, func(i do.Injector) (*polling.Poller, error) {
		return polling.New(do.MustInvoke[*httpapi.Client](i),
			polling.WithInterval(do.MustInvoke[*config.Config](i).PollInterval),
			polling.WithSink(do.MustInvoke[eventlog.Sink](i)),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*sse.Client, error) {
		return sse.New(do.MustInvoke[*httpapi.Client](i),
			sse.WithSink(do.MustInvoke[eventlog.Sink](i)),
		), nil
	})
	do.Provide(i, func(i do.Injector) (*chat.Connector, error) {
		return chat.NewConnector(do.MustInvoke[*config.Config](i).SocketURL()), nil
	})
	return a
}

func (a *App) track(c io.Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, c)
}

func (a *App) provideStore(i do.Injector) (session.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	store, err := session.Open(a.ctx, cfg.SessionBackend, cfg.SessionPath)
	if err != nil {
		return nil, err
	}
	a.track(store)
	return store, nil
}

func (a *App) provideBus(do.Injector) (*pubsub.WatermillBus, error) {
	bus := pubsub.NewWatermillBus()
	a.track(bus)
	return bus, nil
}

func (a *App) provideLog(i do.Injector) (*eventlog.Log, error) {
	bus, err := do.Invoke[*pubsub.WatermillBus](i)
	if err != nil {
		return nil, err
	}
	log := eventlog.NewLog()
	log.Seed(sse.Source, eventlog.LevelInfo, InitMessage)
	if err := log.Listen(a.ctx, bus); err != nil {
		return nil, err
	}
	return log, nil
}

// Resolve returns the service of type T, creating it on first use.
func Resolve[T any](a *App) (T, error) {
	return do.Invoke[T](a.injector)
}

// MustResolve is Resolve for services whose construction cannot fail once
// configuration has been validated.
func MustResolve[T any](a *App) T {
	return do.MustInvoke[T](a.injector)
}

// Close releases the session store and the bus, newest first.
func (a *App) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.injector.Shutdown()
	if err := errors.Join(errs...); err != nil {
		slog.Error("Failed to close application resources", "error", err)
		return err
	}
	return nil
}
