// Package worker drains answer captures from the queue into the answer store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/formfill/internal/adapters/mq/queue"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/logger"
	"github.com/okian/formfill/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	writeTimeout        = 10 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Upserter stores one answer.
type Upserter interface {
	Upsert(ctx context.Context, rec model.AnswerRecord) (model.UpsertResult, error)
}

// Queue defines how workers receive captures.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Capture
}

// Worker writes captures using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the capture in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	upserter Upserter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	stored atomic.Int64
	failed atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, upserter Upserter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		upserter: upserter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	captures := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case c, ok := <-captures:
			if !ok {
				return
			}
			if err := w.process(ctx, c); err != nil {
				w.logger.Error(ctx, "error storing capture", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Stored returns how many captures this worker wrote.
func (w *InMemoryWorker) Stored() int64 { return w.stored.Load() }

// Failed returns how many captures this worker could not write.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, c queue.Capture) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(metrics.Since(start))
	}()

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := w.upserter.Upsert(wctx, c)
	metrics.RecordStoreLatency("upsert", metrics.Since(start))
	if err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordStoreError("upsert")
		metrics.RecordCapture("failed")
		metrics.RecordErrorByComponent("worker", "upsert_error")
		return fmt.Errorf("store answer for %q: %w", c.Question, err)
	}

	w.stored.Add(1)
	metrics.RecordCapture("stored")
	w.logger.Debug(ctx, "capture stored",
		logger.String("question", c.Question),
		logger.Bool("updated", res.Updated),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses the default.
func NewPool(workerCount int, q Queue, upserter Upserter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, upserter, wopts...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stored returns the number of captures written by all workers.
func (p *Pool) Stored() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Stored()
	}
	return n
}

// Failed returns the number of captures that could not be written.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Failed()
	}
	return n
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
