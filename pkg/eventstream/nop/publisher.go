// Package nop provides a publisher that discards events.
package nop

import (
	"context"

	"github.com/papercomputeco/ssetap/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and the "none"
// sink.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish validates input and otherwise does nothing.
func (p *Publisher) Publish(_ context.Context, event *eventstream.RecordEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
