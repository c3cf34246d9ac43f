package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Topic[T] binds a topic name to the JSON payload type carried on it.
type Topic[T any] struct {
	name string
}

// NewTopic declares a typed topic.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name returns the topic name used on the bus.
func (t Topic[T]) Name() string {
	return t.name
}

// Publish marshals payload and publishes it on the topic.
func (t Topic[T]) Publish(ctx context.Context, pub Publisher, source string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", t.name, err)
	}
	return pub.Publish(ctx, Message{Topic: t.name, Source: source, Payload: data})
}

// Subscribe decodes every message on the topic before handing it to fn.
func (t Topic[T]) Subscribe(ctx context.Context, sub Subscriber, fn func(ctx context.Context, source string, payload T) error) error {
	return sub.Subscribe(ctx, t.name, func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", t.name, err)
		}
		return fn(ctx, msg.Source, payload)
	})
}
