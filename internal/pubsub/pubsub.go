// Package pubsub is the in-process message bus that carries activity entries
// from the connection clients to whoever renders them.
package pubsub

import "context"

// Message is one published payload.
type Message struct {
	Topic   string
	Source  string // publishing component, e.g. "sse"
	Payload []byte
}

// Handler processes one delivered message.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber delivers the messages of a topic to a handler. Subscribe
// returns once the subscription is live; delivery ends with ctx.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
