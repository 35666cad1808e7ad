package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/metrics"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]model.AnswerRecord
	intents  map[model.Intent]string
	profile  *model.Profile
	opts     options
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a memory store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		records:  make(map[string]model.AnswerRecord),
		intents:  make(map[model.Intent]string),
		opts:     defaultOptions(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, _ := s.Count(ctx)
				metrics.UpdateAnswersTotal(n)
			}
		}
	}()
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, key string) (model.AnswerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return model.AnswerRecord{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(_ context.Context, rec model.AnswerRecord) (bool, error) {
	if rec.Key == "" {
		return false, ErrInvalidKey
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.opts.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, existed := s.records[rec.Key]
	s.records[rec.Key] = cloneRecord(rec)
	return existed && old.Answer != rec.Answer, nil
}

// IntentAnswer implements Store.IntentAnswer.
func (s *MemoryStore) IntentAnswer(_ context.Context, intent model.Intent) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.intents[intent]
	if !ok {
		return "", ErrNotFound
	}
	return a, nil
}

// PutIntentAnswer implements Store.PutIntentAnswer.
func (s *MemoryStore) PutIntentAnswer(_ context.Context, intent model.Intent, answer string) (bool, error) {
	if intent == model.IntentNone {
		return false, ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, existed := s.intents[intent]
	s.intents[intent] = answer
	return existed && old != answer, nil
}

// List implements Store.List.
func (s *MemoryStore) List(_ context.Context, limit int) ([]model.AnswerRecord, error) {
	s.mu.RLock()
	out := make([]model.AnswerRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.AnswerRecord) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// SaveProfile implements Store.SaveProfile.
func (s *MemoryStore) SaveProfile(_ context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &p
	return nil
}

// LoadProfile implements Store.LoadProfile.
func (s *MemoryStore) LoadProfile(_ context.Context) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return model.Profile{}, ErrNotFound
	}
	return *s.profile, nil
}

func cloneRecord(rec model.AnswerRecord) model.AnswerRecord {
	rec.Choices = slices.Clone(rec.Choices)
	return rec
}
