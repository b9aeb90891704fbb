// Package writer publishes events to an io.Writer, typically stdout.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/papercomputeco/ssetap/pkg/cliui"
	"github.com/papercomputeco/ssetap/pkg/config"
	"github.com/papercomputeco/ssetap/pkg/eventstream"
)

// Publisher renders each event as one line on the underlying writer.
//
// Formats:
//   - json: the parsed event object, {"event":...,"data":...}
//   - pretty: sequence number, event name and data, styled
//   - data: the raw data value; events without data are skipped
type Publisher struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	enc    *json.Encoder
}

// NewPublisher returns a Publisher writing in format to w. w is not closed
// by Close.
func NewPublisher(w io.Writer, format string) (*Publisher, error) {
	p := &Publisher{format: format}

	switch format {
	case config.FormatJSON:
		p.w = w
		p.enc = json.NewEncoder(w)
		p.enc.SetEscapeHTML(false)
	case config.FormatData:
		p.w = w
	case config.FormatPretty:
		p.w = cliui.Writer(w)
	default:
		return nil, fmt.Errorf("unknown output format: %q", format)
	}

	return p, nil
}

// Publish writes event.
func (p *Publisher) Publish(_ context.Context, event *eventstream.RecordEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	switch p.format {
	case config.FormatJSON:
		err = p.enc.Encode(event.Event)
	case config.FormatData:
		if event.Event.HasData() {
			_, err = fmt.Fprintln(p.w, event.Event.Data)
		}
	case config.FormatPretty:
		_, err = fmt.Fprintln(p.w, renderPretty(event))
	}

	if err != nil {
		return fmt.Errorf("writing event %d: %w", event.Sequence, err)
	}
	return nil
}

func renderPretty(event *eventstream.RecordEvent) string {
	ev := event.Event
	seq := cliui.DimStyle.Render(fmt.Sprintf("#%d", event.Sequence))

	if ev.IsEmpty() {
		return seq + " " + cliui.DimStyle.Render("(empty)")
	}

	name := "message"
	if ev.HasType() {
		name = ev.Type
	}

	line := seq + " " + cliui.EventStyle.Render(name)
	if ev.HasData() {
		line += " " + cliui.ValueStyle.Render(ev.Data)
	}
	return line
}

// Close is a no-op; the writer belongs to the caller.
func (p *Publisher) Close() error {
	return nil
}
