// Package queue holds answer captures between the change observer and the
// store writers.
//
// The in-memory queue is bounded; Enqueue never blocks.
package queue

import (
	"context"
	"sync"

	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
	defaultBufferSize    = 1024
)

// Capture is an answer the user gave on a page, waiting to be stored.
type Capture = model.AnswerRecord

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a capture to the queue.
	// Returns false if the queue is full or closed and the capture was dropped.
	Enqueue(ctx context.Context, c Capture) bool

	// Dequeue returns a channel that receives captures as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Capture

	// Len returns the current number of queued captures.
	Len(ctx context.Context) int

	// Close stops accepting captures. Queued captures can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	captures   chan Capture
	capacity   int
	bufferSize int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}

	q.captures = make(chan Capture, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a capture to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Capture) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.captures) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.captures <- c:
		metrics.RecordQueueEnqueue()
		q.updateSize()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive captures as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Capture {
	out := make(chan Capture)

	go func() {
		defer close(out)
		for c := range q.captures {
			select {
			case out <- c:
				metrics.RecordQueueDequeue()
				q.updateSize()
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Len returns the current number of queued captures.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.updateSize()
}

func (q *InMemoryQueue) updateSize() int {
	size := len(q.captures)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.captures)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
