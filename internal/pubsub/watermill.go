package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const sourceKey = "source"

// WatermillBus is a Publisher and Subscriber backed by watermill's GoChannel.
type WatermillBus struct {
	ch *gochannel.GoChannel
}

// NewWatermillBus creates an in-memory bus. Publishing blocks only once a
// subscriber has 64 undelivered messages.
func NewWatermillBus() *WatermillBus {
	return &WatermillBus{
		ch: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewStdLogger(false, false),
		),
	}
}

// Publish sends msg to every current subscriber of msg.Topic.
func (b *WatermillBus) Publish(_ context.Context, msg Message) error {
	wm := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wm.Metadata.Set(sourceKey, msg.Source)
	return b.ch.Publish(msg.Topic, wm)
}

// Subscribe hands each message of topic to handler, one at a time and in
// publish order.
func (b *WatermillBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	in, err := b.ch.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wm := range in {
			msg := Message{Topic: topic, Source: wm.Metadata.Get(sourceKey), Payload: wm.Payload}
			if err := handler(ctx, msg); err != nil {
				slog.Error("Bus handler failed", "topic", topic, "msg_id", wm.UUID, "error", err)
				// GoChannel does not redeliver, a nack just releases the next message.
				wm.Nack()
				continue
			}
			wm.Ack()
		}
		slog.Debug("Bus subscription ended", "topic", topic)
	}()
	return nil
}

// Close ends every subscription.
func (b *WatermillBus) Close() error {
	return b.ch.Close()
}
