package sse

import (
	"io"
	"log/slog"
)

const defaultReadSize = 4096

// Option configures a Reader created with NewReader or Parse.
type Option func(*options)

type options struct {
	delimiter string
	encoding  string
	log       bool
	logger    *slog.Logger
	tee       io.Writer
	readSize  int
}

func defaultOptions() *options {
	return &options{
		delimiter: DefaultDelimiter,
		encoding:  DefaultEncoding,
		readSize:  defaultReadSize,
	}
}

// WithDelimiter sets the record boundary. Defaults to DefaultDelimiter.
func WithDelimiter(delimiter string) Option {
	return func(o *options) {
		o.delimiter = delimiter
	}
}

// WithEncoding sets the WHATWG label of the byte stream's text encoding.
// Defaults to DefaultEncoding.
func WithEncoding(encoding string) Option {
	return func(o *options) {
		o.encoding = encoding
	}
}

// WithLog writes every extracted record to the diagnostic logger before it is
// parsed.
func WithLog(log bool) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithLogger sets the diagnostic logger. When WithLog is enabled and no logger
// is given, records go to a pretty logger on stderr.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTee forwards every raw byte read from the source to w, verbatim and
// before decoding.
func WithTee(w io.Writer) Option {
	return func(o *options) {
		o.tee = w
	}
}

// WithReadSize sets how many bytes are requested from the source per read.
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}
