package sse

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/papercomputeco/ssetap/pkg/logger"
)

var (
	// ErrEmptyDelimiter is returned when the configured delimiter is "".
	ErrEmptyDelimiter = errors.New("record delimiter must not be empty")

	// ErrConsumed is yielded when a sequence returned by Parse is ranged over
	// a second time. Each stream can be parsed once.
	ErrConsumed = errors.New("event sequence already consumed")
)

// Reader pulls events from a byte source on demand.
//
// ┌──────────────────┐
// │ source io.Reader │──▶ tee io.Writer (optional, raw bytes)
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │  Reader.Next()   │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
//
// A Reader is not safe for concurrent use. The source is closed exactly once:
// when Next reaches the end of the stream, when reading or decoding fails, or
// when Close is called, whichever happens first.
type Reader struct {
	src  io.ReadCloser
	text io.Reader
	buf  []byte

	asm     *Reassembler
	pending []string

	logRecords bool
	logger     *slog.Logger

	done   bool
	err    error
	closed bool
}

// NewReader returns a Reader parsing events from src. If the options are
// invalid src is closed and an error returned.
func NewReader(src io.ReadCloser, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.delimiter == "" {
		_ = src.Close()
		return nil, fmt.Errorf("creating reader: %w", ErrEmptyDelimiter)
	}

	var raw io.Reader = src
	if o.tee != nil {
		raw = io.TeeReader(src, o.tee)
	}

	text, err := newDecodingReader(raw, o.encoding)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("creating reader: %w", err)
	}

	l := o.logger
	if l == nil {
		if o.log {
			l = logger.New(logger.WithWriter(os.Stderr), logger.WithPretty(true))
		} else {
			l = logger.Nop()
		}
	}

	return &Reader{
		src:        src,
		text:       text,
		buf:        make([]byte, o.readSize),
		asm:        NewReassembler(o.delimiter),
		logRecords: o.log,
		logger:     l,
	}, nil
}

// Next returns the next event. It blocks until a complete record has been
// read, and returns nil, nil once the source is exhausted. A trailing record
// without a delimiter is dropped.
//
// Read and decode errors are returned unwrapped, so errors.Is(err,
// ErrMalformedInput) identifies a decoding failure. After an error every
// later call returns the same error.
func (r *Reader) Next() (*Event, error) {
	for {
		if len(r.pending) > 0 {
			record := r.pending[0]
			r.pending = r.pending[1:]

			if r.logRecords {
				r.logger.Info("record", "record", record)
			}

			ev := ParseRecord(record)
			return &ev, nil
		}

		if r.done {
			return nil, r.err
		}

		n, err := r.text.Read(r.buf)
		if n > 0 {
			r.pending = r.asm.Feed(string(r.buf[:n]))
		}

		if err != nil {
			r.finish(err)
		}
	}
}

// finish ends the stream. Records already completed before err are still
// returned by Next.
func (r *Reader) finish(err error) {
	r.done = true

	if !errors.Is(err, io.EOF) {
		r.err = err
		r.logger.Debug("event stream failed", "error", err)
	} else if residual := r.asm.Residual(); residual != "" {
		r.logger.Debug("dropping unterminated record", "bytes", len(residual))
	}

	r.asm.Reset()
	_ = r.Close()
}

// Close releases the source. Events not yet returned are discarded. Close is
// idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	if !r.done {
		r.done = true
		r.pending = nil
	}

	return r.src.Close()
}

// Parse returns the events of src as a lazily produced sequence. Nothing is
// read until the sequence is ranged over, and each event is produced only
// when the loop asks for it.
//
// src is closed when the sequence ends, fails, or the loop breaks early. An
// error is yielded at most once and ends the sequence.
//
//	for ev, err := range sse.Parse(resp.Body) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(ev.Type, ev.Data)
//	}
func Parse(src io.ReadCloser, opts ...Option) iter.Seq2[Event, error] {
	var consumed atomic.Bool

	return func(yield func(Event, error) bool) {
		if consumed.Swap(true) {
			yield(Event{}, ErrConsumed)
			return
		}

		r, err := NewReader(src, opts...)
		if err != nil {
			yield(Event{}, err)
			return
		}
		defer r.Close()

		for {
			ev, err := r.Next()
			if err != nil {
				yield(Event{}, err)
				return
			}

			if ev == nil {
				return
			}

			if !yield(*ev, nil) {
				return
			}
		}
	}
}
