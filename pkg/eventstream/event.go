// Package eventstream defines the envelope published for every event parsed
// from a stream, and the Publisher abstraction sinks implement.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ssetap/pkg/sse"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeParsed is emitted for each record parsed from a stream.
	EventTypeParsed = "ssetap.event.parsed"
)

// RecordEvent is a transport-neutral envelope around one parsed event.
type RecordEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Sequence      uint64      `json:"sequence"`
	Source        EventSource `json:"source"`
	Event         sse.Event   `json:"event"`
}

// EventSource identifies the stream an event was read from.
type EventSource struct {
	URL  string `json:"url,omitempty"`
	File string `json:"file,omitempty"`
}

// NewEnvelope wraps ev, the seq-th event of its stream (1-based).
func NewEnvelope(seq uint64, src EventSource, ev sse.Event) *RecordEvent {
	return &RecordEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeParsed,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Sequence:      seq,
		Source:        src,
		Event:         ev,
	}
}
