// Package noop provides a publisher that drops events, the default when no
// event sink is configured.
package noop

import "context"

// Publisher discards all events.
type Publisher struct{}

// New returns a noop Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish discards the payload.
func (Publisher) Publish(context.Context, string, any) (string, error) {
	return "noop", nil
}
