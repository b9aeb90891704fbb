// Package worker provides an asynchronous worker pool that hands parsed
// stream events to a downstream eventstream.Publisher.
//
// The pool decouples slow sinks (e.g. a kafka broker acknowledging every
// message) from the read loop, so parsing keeps pace with the source.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/ssetap/pkg/eventstream"
	"github.com/papercomputeco/ssetap/pkg/logger"
)

var (
	defaultNumWorkers   uint = 1
	defaultJobQueueSize uint = 256
)

// ErrClosed is returned when publishing to a closed pool.
var ErrClosed = errors.New("worker pool closed")

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives every queued event. The pool owns it and closes it
	// on Close.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool. Events
	// reach the Publisher in stream order only with a single worker, the
	// default.
	NumWorkers uint

	// QueueSize is the capacity of the buffered event channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool publishes events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan *eventstream.RecordEvent
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards closed; senders hold it shared while sending to queue.
	mu     sync.RWMutex
	closed bool

	errMu    sync.Mutex
	firstErr error
	failed   uint64
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool requires a publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *eventstream.RecordEvent, c.QueueSize),
		logger: l,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits an event without blocking.
// Returns true if enqueued, false if the event is nil, the queue is full or
// the pool is closed, resulting in the event being dropped.
func (p *Pool) Enqueue(event *eventstream.RecordEvent) bool {
	if event == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	select {
	case p.queue <- event:
		p.logger.Debug("event queued", "sequence", event.Sequence)
		return true
	default:
		p.logger.Error("event not queued, queue full, event dropped", "sequence", event.Sequence)
		return false
	}
}

// Publish implements eventstream.Publisher. It blocks while the queue is full
// until ctx is done, so a slow publisher applies backpressure to the caller.
func (p *Pool) Publish(ctx context.Context, event *eventstream.RecordEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, waits for queued events to drain, and closes
// the downstream Publisher. It returns the first publish error seen by a
// worker joined with the downstream Close error, if any.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()

	closeErr := p.config.Publisher.Close()

	p.errMu.Lock()
	defer p.errMu.Unlock()

	if p.firstErr != nil {
		return errors.Join(fmt.Errorf("%d events failed to publish: %w", p.failed, p.firstErr), closeErr)
	}
	return closeErr
}

// worker is the inner worker thread that continuously pulls events off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for event := range p.queue {
		p.processEvent(event)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

func (p *Pool) processEvent(event *eventstream.RecordEvent) {
	// Queued events are published even after the caller's context ended.
	err := p.config.Publisher.Publish(context.Background(), event)
	if err == nil {
		return
	}

	p.logger.Error("async publish failed", "sequence", event.Sequence, "error", err)

	p.errMu.Lock()
	p.failed++
	if p.firstErr == nil {
		p.firstErr = err
	}
	p.errMu.Unlock()
}
