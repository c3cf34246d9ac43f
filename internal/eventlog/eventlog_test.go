package eventlog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/realtimehub/internal/pubsub"
)

func TestLog_KeepsLastEntries(t *testing.T) {
	l := NewLog()
	for i := 0; i < MaxEntries+7; i++ {
		l.Seed("sse", LevelInfo, fmt.Sprintf("entry %d", i))
	}

	entries := l.Entries("")
	require.Len(t, entries, MaxEntries)
	assert.Equal(t, "entry 7", entries[0].Message)
	assert.Equal(t, fmt.Sprintf("entry %d", MaxEntries+6), entries[MaxEntries-1].Message)
}

func TestLog_FilterBySource(t *testing.T) {
	l := NewLog()
	l.Seed("sse", LevelInfo, "a")
	l.Seed("chat", LevelError, "b")

	assert.Len(t, l.Entries("sse"), 1)
	assert.Equal(t, "b", l.Entries("chat")[0].Message)
	assert.Len(t, l.Entries(""), 2)
}

func TestBusSink_DeliversToLog(t *testing.T) {
	bus := pubsub.NewWatermillBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLog()
	require.NoError(t, l.Listen(ctx, bus))

	sink := NewBusSink(bus)
	sink.Record(ctx, "sse", LevelSuccess, "Subscribed to: AAPL")
	sink.Record(ctx, "sse", LevelError, "Subscription failed: nope")

	assert.Eventually(t, func() bool { return len(l.Entries("sse")) == 2 }, time.Second, 10*time.Millisecond)

	entries := l.Entries("sse")
	assert.Equal(t, LevelSuccess, entries[0].Level)
	assert.Equal(t, "Subscription failed: nope", entries[1].Message)
	assert.NotEmpty(t, entries[0].ID)
}
