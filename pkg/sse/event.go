// Package sse incrementally decodes a stream of Server-Sent-Events style text
// records into structured events.
//
// Raw bytes are pulled from an io.ReadCloser, decoded into text with a strict
// (fatal on malformed input) decoder, reassembled into complete records on a
// configurable delimiter, and each record is parsed into an Event carrying the
// "event:" and "data:" fields.
//
//	┌──────────────────┐   ┌──────────────┐   ┌─────────────┐   ┌───────┐
//	│ source io.Reader │──▶│ text decoder │──▶│ Reassembler │──▶│ Event │
//	└──────────────────┘   └──────────────┘   └─────────────┘   └───────┘
//
// Records that are not terminated by a delimiter before the stream ends are
// dropped. Only the last "event:" and "data:" line of a record is kept.
package sse

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
)

const (
	commentPrefix = ":"
	eventPrefix   = "event:"
	dataPrefix    = "data:"
)

// Event is a single parsed record. Either field may be absent: HasType and
// HasData report whether the record carried a matching line at all, which
// distinguishes "data:" with an empty value from no data line.
type Event struct {
	// Type is the trimmed value of the last "event:" line.
	Type string

	// Data is the trimmed value of the last "data:" line.
	Data string

	hasType bool
	hasData bool
}

// HasType reports whether the record contained an "event:" line.
func (e Event) HasType() bool {
	return e.hasType
}

// HasData reports whether the record contained a "data:" line.
func (e Event) HasData() bool {
	return e.hasData
}

// IsEmpty is true for records that carried neither field, e.g. comment-only
// keep-alives.
func (e Event) IsEmpty() bool {
	return !e.hasType && !e.hasData
}

type eventJSON struct {
	Event *string `json:"event,omitempty"`
	Data  *string `json:"data,omitempty"`
}

// MarshalJSON encodes only the fields that were present in the record.
// Values are not HTML-escaped; an enclosing encoder may still escape them.
func (e Event) MarshalJSON() ([]byte, error) {
	var out eventJSON
	if e.hasType {
		out.Event = &e.Type
	}
	if e.hasData {
		out.Data = &e.Data
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON restores field presence from the keys in the object.
func (e *Event) UnmarshalJSON(b []byte) error {
	var in eventJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	*e = Event{}
	if in.Event != nil {
		e.Type, e.hasType = *in.Event, true
	}
	if in.Data != nil {
		e.Data, e.hasData = *in.Data, true
	}
	return nil
}

// ParseRecord parses one complete record. It never fails: comment lines,
// blank lines and unknown fields are skipped, so a record without any
// recognized line yields an empty Event.
func ParseRecord(record string) Event {
	var ev Event

	for line := range strings.SplitSeq(record, "\n") {
		switch {
		case strings.HasPrefix(line, commentPrefix):
			continue
		case strings.HasPrefix(line, eventPrefix):
			ev.Type = trimValue(line[len(eventPrefix):])
			ev.hasType = true
		case strings.HasPrefix(line, dataPrefix):
			// Repeated data lines overwrite rather than join.
			ev.Data = trimValue(line[len(dataPrefix):])
			ev.hasData = true
		}
	}

	return ev
}

// trimValue strips whitespace the way ECMAScript String.prototype.trim does.
// Unlike strings.TrimSpace it removes U+FEFF and keeps U+0085.
func trimValue(s string) string {
	return strings.TrimFunc(s, isFieldSpace)
}

func isFieldSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u00a0', '\ufeff', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}
