package worker

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ssetap/pkg/eventstream"
	"github.com/papercomputeco/ssetap/pkg/sse"
)

// recordingPublisher records published sequences. When gate is set, every
// Publish waits for it to be closed first.
type recordingPublisher struct {
	mu       sync.Mutex
	seqs     []uint64
	closed   int
	failOn   uint64
	gate     chan struct{}
	closeErr error
}

func (r *recordingPublisher) Publish(_ context.Context, event *eventstream.RecordEvent) error {
	if r.gate != nil {
		<-r.gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Sequence == r.failOn {
		return errors.New("broker unavailable")
	}
	r.seqs = append(r.seqs, event.Sequence)
	return nil
}

func (r *recordingPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return r.closeErr
}

func (r *recordingPublisher) published() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.seqs...)
}

func envelope(seq uint64) *eventstream.RecordEvent {
	return eventstream.NewEnvelope(seq, eventstream.EventSource{File: "-"}, sse.ParseRecord("data: x"))
}

var _ = Describe("Worker Pool", func() {
	var (
		rec *recordingPublisher
		ctx context.Context
	)

	BeforeEach(func() {
		rec = &recordingPublisher{}
		ctx = context.Background()
	})

	It("requires a publisher", func() {
		_, err := NewPool(&Config{})
		Expect(err).To(HaveOccurred())
	})

	It("applies defaults", func() {
		wp, err := NewPool(&Config{Publisher: rec})
		Expect(err).NotTo(HaveOccurred())
		Expect(wp.config.NumWorkers).To(Equal(defaultNumWorkers))
		Expect(wp.config.QueueSize).To(Equal(defaultJobQueueSize))
		Expect(wp.Close()).To(Succeed())
	})

	Describe("Publish", func() {
		It("delivers events in order with a single worker and drains on Close", func() {
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())

			for seq := uint64(1); seq <= 50; seq++ {
				Expect(wp.Publish(ctx, envelope(seq))).To(Succeed())
			}
			Expect(wp.Close()).To(Succeed())

			seqs := rec.published()
			Expect(seqs).To(HaveLen(50))
			for i, seq := range seqs {
				Expect(seq).To(Equal(uint64(i + 1)))
			}
			Expect(rec.closed).To(Equal(1))
		})

		It("rejects nil events", func() {
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())
			defer wp.Close()

			Expect(wp.Publish(ctx, nil)).To(MatchError(eventstream.ErrNilEvent))
		})

		It("blocks on a full queue until the context ends", func() {
			rec.gate = make(chan struct{})
			wp, err := NewPool(&Config{Publisher: rec, QueueSize: 1})
			Expect(err).NotTo(HaveOccurred())

			// One event is held by the worker, one fills the queue.
			Expect(wp.Publish(ctx, envelope(1))).To(Succeed())
			Eventually(func() int { return len(wp.queue) }).Should(BeZero())
			Expect(wp.Publish(ctx, envelope(2))).To(Succeed())

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			Expect(wp.Publish(cctx, envelope(3))).To(MatchError(context.Canceled))

			close(rec.gate)
			Expect(wp.Close()).To(Succeed())
			Expect(rec.published()).To(Equal([]uint64{1, 2}))
		})

		It("fails after Close", func() {
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())
			Expect(wp.Close()).To(Succeed())

			Expect(wp.Publish(ctx, envelope(1))).To(MatchError(ErrClosed))
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(envelope(1))).To(BeTrue())
			Expect(wp.Close()).To(Succeed())
			Expect(rec.published()).To(Equal([]uint64{1}))
		})

		It("drops events when the queue is full", func() {
			rec.gate = make(chan struct{})
			wp, err := NewPool(&Config{Publisher: rec, QueueSize: 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(envelope(1))).To(BeTrue())
			Eventually(func() int { return len(wp.queue) }).Should(BeZero())
			Expect(wp.Enqueue(envelope(2))).To(BeTrue())
			Expect(wp.Enqueue(envelope(3))).To(BeFalse())

			close(rec.gate)
			Expect(wp.Close()).To(Succeed())
			Expect(rec.published()).To(Equal([]uint64{1, 2}))
		})

		It("drops nil events", func() {
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(nil)).To(BeFalse())
			Expect(wp.Enqueue(envelope(1))).To(BeTrue())
			Expect(wp.Close()).To(Succeed())
			Expect(rec.published()).To(Equal([]uint64{1}))
		})

		It("returns false after Close", func() {
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())
			Expect(wp.Close()).To(Succeed())

			Expect(wp.Enqueue(envelope(1))).To(BeFalse())
		})
	})

	Describe("Close", func() {
		It("reports publish failures", func() {
			rec.failOn = 2
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())

			for seq := uint64(1); seq <= 3; seq++ {
				Expect(wp.Publish(ctx, envelope(seq))).To(Succeed())
			}

			err = wp.Close()
			Expect(err).To(MatchError(ContainSubstring("1 events failed to publish")))
			Expect(err).To(MatchError(ContainSubstring("broker unavailable")))
			Expect(rec.published()).To(Equal([]uint64{1, 3}))
		})

		It("reports the downstream close error alongside publish failures", func() {
			rec.failOn = 1
			rec.closeErr = errors.New("writer already closed")
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Publish(ctx, envelope(1))).To(Succeed())

			err = wp.Close()
			Expect(err).To(MatchError(ContainSubstring("1 events failed to publish")))
			Expect(err).To(MatchError(ContainSubstring("writer already closed")))
			Expect(errors.Is(err, rec.closeErr)).To(BeTrue())
		})

		It("returns the downstream close error", func() {
			rec.closeErr = errors.New("writer already closed")
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Close()).To(MatchError(rec.closeErr))
		})

		It("is idempotent", func() {
			wp, err := NewPool(&Config{Publisher: rec})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Close()).To(Succeed())
			Expect(wp.Close()).To(Succeed())
			Expect(rec.closed).To(Equal(1))
		})
	})
})
