// Package readcmder provides the read command, which parses an event stream
// and publishes every event to the configured sink.
package readcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/ssetap/pkg/config"
	"github.com/papercomputeco/ssetap/pkg/eventstream"
	"github.com/papercomputeco/ssetap/pkg/eventstream/kafka"
	"github.com/papercomputeco/ssetap/pkg/eventstream/nop"
	"github.com/papercomputeco/ssetap/pkg/eventstream/worker"
	"github.com/papercomputeco/ssetap/pkg/eventstream/writer"
	"github.com/papercomputeco/ssetap/pkg/logger"
	"github.com/papercomputeco/ssetap/pkg/source"
	"github.com/papercomputeco/ssetap/pkg/sse"
)

type readCommander struct {
	delimiter    string
	encoding     string
	log          bool
	tee          string
	format       string
	sink         string
	kafkaBrokers string
	kafkaTopic   string
	headers      []string
	logFile      string

	debug  bool
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
}

var readFlagKeys = []string{
	config.FlagDelimiter,
	config.FlagEncoding,
	config.FlagLog,
	config.FlagTee,
	config.FlagFormat,
	config.FlagSink,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const readLongDesc string = `Read an event stream and publish every parsed event.

The stream is read from a URL (GET with Accept: text/event-stream), a file,
or stdin when the location is "-" or omitted and no source.url is configured.

Records are split on the delimiter (a blank line by default). Each record's
last "event:" and "data:" lines become one event; comment lines starting with
":" are ignored. A trailing record without a delimiter is dropped.

Events go to stdout (json, pretty or data format), to a kafka topic, or
nowhere with --sink none.

Examples:
  ssetap read https://example.com/stream
  ssetap read -H "Authorization: Bearer $TOKEN" https://api.example.com/v1/events
  curl -sN https://example.com/stream | ssetap read -f data
  ssetap read --delimiter '\r\n\r\n' capture.sse
  ssetap read --sink kafka --kafka-brokers k1:9092 --kafka-topic sse https://example.com/stream`

const readShortDesc string = "Parse an event stream into events"

func NewReadCmd() *cobra.Command {
	cmder := &readCommander{}

	cmd := &cobra.Command{
		Use:   "read [url|file|-]",
		Short: readShortDesc,
		Long:  readLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.ReadFlags, readFlagKeys)
			cmder.cfg = config.FromViper(v)

			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			location := cmder.cfg.Source.URL
			if len(args) == 1 {
				location = args[0]
			}

			cmder.stdout = cmd.OutOrStdout()
			cmder.logger = logger.New(
				logger.WithWriter(cmd.ErrOrStderr()),
				logger.WithPretty(true),
				logger.WithDebug(cmder.debug),
			)

			if cmder.logFile != "" {
				f, err := os.OpenFile(cmder.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()

				cmder.logger = logger.Multi(cmder.logger, logger.New(
					logger.WithWriter(f),
					logger.WithJSON(true),
					logger.WithDebug(cmder.debug),
				))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// A second signal kills the process, e.g. while blocked on stdin.
			context.AfterFunc(ctx, stop)

			return cmder.run(ctx, location)
		},
	}

	config.AddStringFlag(cmd, config.ReadFlags, config.FlagDelimiter, &cmder.delimiter)
	config.AddStringFlag(cmd, config.ReadFlags, config.FlagEncoding, &cmder.encoding)
	config.AddBoolFlag(cmd, config.ReadFlags, config.FlagLog, &cmder.log)
	config.AddStringFlag(cmd, config.ReadFlags, config.FlagTee, &cmder.tee)
	config.AddStringFlag(cmd, config.ReadFlags, config.FlagFormat, &cmder.format)
	config.AddStringFlag(cmd, config.ReadFlags, config.FlagSink, &cmder.sink)
	config.AddStringFlag(cmd, config.ReadFlags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.ReadFlags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	cmd.Flags().StringArrayVarP(&cmder.headers, "header", "H", nil, `Extra request header "Key: Value" (repeatable)`)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append diagnostic logs to this file as JSON")

	return cmd
}

func (c *readCommander) run(ctx context.Context, location string) (err error) {
	headers, err := source.ParseHeaders(c.headers)
	if err != nil {
		return err
	}

	pub, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pub.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing publisher: %w", cerr)
		}
	}()

	opts := []sse.Option{
		sse.WithDelimiter(c.cfg.Parser.Delimiter),
		sse.WithEncoding(c.cfg.Parser.Encoding),
		sse.WithLog(c.cfg.Parser.Log),
		sse.WithLogger(c.logger),
	}

	src, err := source.Open(ctx, source.Spec{Location: location, Headers: headers})
	if err != nil {
		return err
	}

	if c.cfg.Source.Tee != "" {
		f, err := os.Create(c.cfg.Source.Tee)
		if err != nil {
			_ = src.Close()
			return fmt.Errorf("creating tee file: %w", err)
		}
		defer f.Close()
		opts = append(opts, sse.WithTee(f))
	}

	c.logger.Debug("reading stream",
		"source", describe(location),
		"delimiter", config.EscapeDelimiter(c.cfg.Parser.Delimiter),
		"encoding", c.cfg.Parser.Encoding,
		"sink", c.cfg.Sink.Provider,
	)

	origin := eventstream.EventSource{}
	if source.IsURL(location) {
		origin.URL = location
	} else {
		origin.File = describe(location)
	}

	var seq uint64
	for ev, err := range sse.Parse(src, opts...) {
		if interrupted(ctx, err) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading stream after %d events: %w", seq, err)
		}

		seq++
		err = pub.Publish(ctx, eventstream.NewEnvelope(seq, origin, ev))
		if interrupted(ctx, err) {
			break
		}
		if err != nil {
			return err
		}
	}

	c.logger.Debug("stream finished", "events", seq)
	return nil
}

func (c *readCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.cfg.Sink.Provider {
	case config.SinkStdout:
		format := c.cfg.Output.Format
		if format == "" {
			format = config.FormatJSON
			if isTerminal(c.stdout) {
				format = config.FormatPretty
			}
		}
		return writer.NewPublisher(c.stdout, format)

	case config.SinkKafka:
		kp, err := kafka.NewPublisher(&kafka.Config{
			Brokers: c.cfg.Kafka.Brokers,
			Topic:   c.cfg.Kafka.Topic,
			Logger:  c.logger,
		})
		if err != nil {
			return nil, err
		}

		// Broker acks happen off the read loop; Close drains the queue.
		return worker.NewPool(&worker.Config{
			Publisher: kp,
			Logger:    c.logger,
		})

	case config.SinkNone:
		return nop.NewPublisher(), nil

	default:
		return nil, fmt.Errorf("unknown sink: %q", c.cfg.Sink.Provider)
	}
}

// interrupted reports whether the read loop should stop quietly because ctx
// was canceled by a signal.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func describe(location string) string {
	if location == "" {
		return source.Stdin
	}
	return location
}
