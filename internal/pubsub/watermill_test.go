package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeting struct {
	Text string `json:"text"`
}

func TestWatermillBus_RoundTrip(t *testing.T) {
	bus := NewWatermillBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received []Message
	)
	require.NoError(t, bus.Subscribe(ctx, "test.topic", func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, Message{
		Topic:   "test.topic",
		Source:  "tester",
		Payload: []byte("hello"),
	}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "test.topic", received[0].Topic)
	assert.Equal(t, "tester", received[0].Source)
	assert.Equal(t, []byte("hello"), received[0].Payload)
}

func TestTopic_TypedPublish(t *testing.T) {
	bus := NewWatermillBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := NewTopic[greeting]("test.greetings")
	got := make(chan greeting, 1)
	require.NoError(t, topic.Subscribe(ctx, bus, func(ctx context.Context, source string, g greeting) error {
		assert.Equal(t, "unit", source)
		got <- g
		return nil
	}))

	require.NoError(t, topic.Publish(ctx, bus, "unit", greeting{Text: "hi"}))

	select {
	case g := <-got:
		assert.Equal(t, "hi", g.Text)
	case <-time.After(time.Second):
		t.Fatal("typed message was not delivered")
	}
}
