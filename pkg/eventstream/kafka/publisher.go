// Package kafka publishes parsed stream events to a kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/ssetap/pkg/eventstream"
	"github.com/papercomputeco/ssetap/pkg/logger"
)

// Config is the configuration for a kafka Publisher.
type Config struct {
	// Brokers are the bootstrap broker addresses ("host:port").
	Brokers []string

	// Topic receives one message per event.
	Topic string

	// Logger receives kafka client errors. Defaults to a no-op logger.
	Logger *slog.Logger
}

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes each RecordEvent as a JSON message. The message key is the
// event name, so events of one type stay ordered within a partition.
type Publisher struct {
	w      messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Publisher with a synchronous writer: Publish returns
// once the broker acknowledged the message.
func NewPublisher(c *Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchSize:              1,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...any) {
			l.Error("kafka writer", "error", fmt.Sprintf(msg, args...))
		}),
	}

	return newPublisher(w, l), nil
}

func newPublisher(w messageWriter, l *slog.Logger) *Publisher {
	return &Publisher{w: w, logger: l}
}

// Publish encodes event and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.RecordEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing event %s: %w", event.EventID, err)
	}

	p.logger.Debug("published event", "event_id", event.EventID, "sequence", event.Sequence)
	return nil
}

func toMessage(event *eventstream.RecordEvent) (kafkago.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encoding event %s: %w", event.EventID, err)
	}

	return kafkago.Message{
		Key:   []byte(event.Event.Type),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(strconv.Itoa(event.SchemaVersion))},
		},
	}, nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.w.Close()
}
