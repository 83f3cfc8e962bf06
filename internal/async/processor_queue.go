package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/taxmitra/compliance-copilot/internal/pipeline"
)

// ProcessorQueue is a channel-backed worker pool in front of the ingestion
// processor. Jobs for an invoice that is already queued or in flight are
// dropped: the processor is not reentrant-safe per invoice id, and an
// at-least-once transport may deliver duplicates.
type ProcessorQueue struct {
	proc    *pipeline.Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch      chan Job
	wg      sync.WaitGroup
	senders sync.WaitGroup
	once    sync.Once

	mu       sync.Mutex
	closed   bool
	inflight map[uuid.UUID]struct{}
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:     proc,
		logger:   logger,
		workers:  4,
		timeout:  2 * time.Minute,
		ch:       make(chan Job, 256),
		inflight: make(map[uuid.UUID]struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.proc.ProcessInvoice(ctx, job.InvoiceID)
					cancel()
					q.release(job.InvoiceID)

					if err != nil {
						q.logger.Error("ingestion failed", "worker_id", workerID, "invoice_id", job.InvoiceID, "error", err)
					} else {
						q.logger.Info("ingested invoice successfully", "worker_id", workerID, "invoice_id", job.InvoiceID)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) release(id uuid.UUID) {
	q.mu.Lock()
	delete(q.inflight, id)
	q.mu.Unlock()
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "invoice_id", job.InvoiceID)
		return nil
	}
	if _, dup := q.inflight[job.InvoiceID]; dup {
		q.mu.Unlock()
		q.logger.Info("dropping duplicate ingestion job", "invoice_id", job.InvoiceID)
		return nil
	}
	q.inflight[job.InvoiceID] = struct{}{}
	// Registered under the mutex: Shutdown flips closed before waiting on
	// senders, so the channel cannot close while this send is pending.
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- job:
		q.logger.Info("queued invoice for ingestion", "invoice_id", job.InvoiceID)
	default:
		q.logger.Warn("queue full, applying backpressure", "invoice_id", job.InvoiceID)
		q.ch <- job
	}
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	// Workers keep draining until the channel closes, so even a blocked
	// backpressure send in Enqueue completes and releases its sender slot.
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
