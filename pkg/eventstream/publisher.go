package eventstream

import "context"

// Publisher publishes parsed stream events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event *RecordEvent) error
	Close() error
}
