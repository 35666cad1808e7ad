// Package registry tracks which document elements already carry listeners.
package registry

import (
	"context"
	"sync"
	"sync/atomic"
)

// Registry records wired element keys so wiring happens at most once.
type Registry interface {
	// SeenAndRecord atomically checks whether key was recorded and records it
	// if not. Returns true if key was already present.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so it can be wired again, used when attaching a
	// listener failed after the key was recorded.
	Unrecord(ctx context.Context, key string)

	// Reset forgets every key, for a page that was replaced.
	Reset(ctx context.Context)

	Size() int64
}

type inMemoryRegistry struct {
	mu   sync.Mutex
	seen map[string]struct{}
	hint int
	size atomic.Int64
}

// New creates an in-memory registry.
func New(opts ...Option) Registry {
	r := &inMemoryRegistry{hint: 64}
	for _, opt := range opts {
		opt(r)
	}
	r.seen = make(map[string]struct{}, r.hint)
	return r
}

func (r *inMemoryRegistry) SeenAndRecord(_ context.Context, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[key]; ok {
		return true
	}
	r.seen[key] = struct{}{}
	r.size.Add(1)
	return false
}

func (r *inMemoryRegistry) Unrecord(_ context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[key]; ok {
		delete(r.seen, key)
		r.size.Add(-1)
	}
}

func (r *inMemoryRegistry) Reset(_ context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seen = make(map[string]struct{}, r.hint)
	r.size.Store(0)
}

func (r *inMemoryRegistry) Size() int64 {
	return r.size.Load()
}
