// Package eventlog keeps the bounded activity log shown next to each
// real-time client. Clients record through a Sink; entries travel over the
// pub/sub bus to a single Log consumer.
package eventlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nfrund/realtimehub/internal/pubsub"
)

// Level is the severity shown next to an entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// MaxEntries is how many entries a Log retains.
const MaxEntries = 50

// Entry is one line of the activity log.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

// Entries is the bus topic carrying log entries.
var Entries = pubsub.NewTopic[Entry]("eventlog.entries")

// Sink records activity for a named source.
type Sink interface {
	Record(ctx context.Context, source string, level Level, message string)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, string, Level, string) {}

// BusSink publishes entries on the bus and mirrors them to slog.
type BusSink struct {
	pub pubsub.Publisher
}

// NewBusSink creates a Sink that publishes to pub.
func NewBusSink(pub pubsub.Publisher) *BusSink {
	return &BusSink{pub: pub}
}

// Record implements Sink.
func (s *BusSink) Record(ctx context.Context, source string, level Level, message string) {
	switch level {
	case LevelError:
		slog.Warn(message, "source", source)
	default:
		slog.Info(message, "source", source)
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
		Level:     level,
		Message:   message,
	}
	if err := Entries.Publish(context.WithoutCancel(ctx), s.pub, source, entry); err != nil {
		slog.Error("Failed to publish log entry", "source", source, "error", err)
	}
}

// Log is the consumer side: it retains the last MaxEntries entries.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	notify  func(Entry)
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Seed adds an entry directly, bypassing the bus. Used for the initial
// "initialized" line of a page.
func (l *Log) Seed(source string, level Level, message string) {
	l.append(Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
		Level:     level,
		Message:   message,
	})
}

// OnEntry registers a callback invoked after every appended entry.
func (l *Log) OnEntry(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notify = fn
}

// Listen subscribes the Log to the entries topic until ctx is canceled.
func (l *Log) Listen(ctx context.Context, sub pubsub.Subscriber) error {
	return Entries.Subscribe(ctx, sub, func(_ context.Context, _ string, e Entry) error {
		l.append(e)
		return nil
	})
}

func (l *Log) append(e Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	if over := len(l.entries) - MaxEntries; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
	notify := l.notify
	l.mu.Unlock()

	if notify != nil {
		notify(e)
	}
}

// Entries returns a copy of the retained entries, oldest first.
// If source is non-empty only that source's entries are returned.
func (l *Log) Entries(source string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if source == "" || e.Source == source {
			out = append(out, e)
		}
	}
	return out
}
