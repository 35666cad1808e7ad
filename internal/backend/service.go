// Package backend is the answer memory service: closed-question lookup and
// upsert with intent fallback, open-question drafting, profile storage and
// history. It serves the HTTP API and can be used in-process by the pipeline.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/formfill/internal/adapters/repository"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/profile"
	"github.com/okian/formfill/internal/domain/question"
	"github.com/okian/formfill/pkg/logger"
	"github.com/okian/formfill/pkg/metrics"
)

// Draft sources reported by OpenQuestion.
const (
	DraftGenerated   = "generated"
	DraftFallback    = "fallback"
	DraftUnavailable = "unavailable"
)

// Drafter generates free-text answers.
type Drafter interface {
	Draft(ctx context.Context, req model.DraftRequest) (string, error)
}

// ClosedAnswer is the reply to a closed-question lookup or write.
type ClosedAnswer struct {
	Question   string `json:"question"`
	Normalized string `json:"normalized"`
	Found      bool   `json:"found"`
	Answer     string `json:"answer,omitempty"`
	Source     string `json:"source,omitempty"`
	Stored     bool   `json:"stored,omitempty"`
	Updated    bool   `json:"updated,omitempty"`
}

// OpenAnswer is the reply to an open-question draft request.
type OpenAnswer struct {
	Question        string `json:"question"`
	Draft           string `json:"draft"`
	Source          string `json:"source"`
	ResumeIncluded  bool   `json:"resume_included"`
	ContextIncluded bool   `json:"context_included"`
}

// Service implements the answer memory on top of a repository.Store.
type Service struct {
	store        repository.Store
	drafter      Drafter
	historyLimit int
	logger       logger.Logger

	lookups atomic.Int64
	hits    atomic.Int64
	writes  atomic.Int64
	drafts  atomic.Int64
}

// New creates a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup answers a closed question: the record for the normalized question,
// else the latest answer recorded for intent.
func (s *Service) Lookup(ctx context.Context, q string, intent model.Intent) (ClosedAnswer, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("lookup", metrics.Since(start)) }()

	s.lookups.Add(1)
	key := question.Normalize(q)
	out := ClosedAnswer{Question: q, Normalized: key}
	if key == "" {
		return out, ErrEmptyQuestion
	}

	rec, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		s.hits.Add(1)
		out.Found, out.Answer, out.Source = true, rec.Answer, model.LookupByQuestion
		return out, nil
	case !errors.Is(err, repository.ErrNotFound):
		metrics.RecordStoreError("lookup")
		return out, fmt.Errorf("lookup %q: %w", key, err)
	}

	if intent == model.IntentNone {
		return out, nil
	}
	answer, err := s.store.IntentAnswer(ctx, intent)
	switch {
	case err == nil && answer != "":
		s.hits.Add(1)
		out.Found, out.Answer, out.Source = true, answer, model.LookupByIntent
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		metrics.RecordStoreError("lookup")
		return out, fmt.Errorf("lookup intent %s: %w", intent, err)
	}
	return out, nil
}

// Remember stores an answer under the normalized question and, when intent is
// set, as the intent's latest answer. Updated reports whether either changed.
func (s *Service) Remember(ctx context.Context, rec model.AnswerRecord) (ClosedAnswer, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("remember", metrics.Since(start)) }()

	rec.Question = strings.TrimSpace(rec.Question)
	rec.Answer = strings.TrimSpace(rec.Answer)
	rec.Key = question.Normalize(rec.Question)
	out := ClosedAnswer{Question: rec.Question, Normalized: rec.Key}
	if rec.Key == "" {
		return out, ErrEmptyQuestion
	}

	changed, err := s.store.Put(ctx, rec)
	if err != nil {
		metrics.RecordStoreError("remember")
		return out, fmt.Errorf("store answer: %w", err)
	}
	if rec.Intent != model.IntentNone {
		intentChanged, err := s.store.PutIntentAnswer(ctx, rec.Intent, rec.Answer)
		if err != nil {
			metrics.RecordStoreError("remember")
			return out, fmt.Errorf("store intent answer: %w", err)
		}
		changed = changed || intentChanged
	}
	s.writes.Add(1)

	s.logger.Debug(ctx, "answer stored",
		logger.String("key", rec.Key),
		logger.String("intent", rec.Intent.String()),
		logger.Bool("updated", changed))

	out.Found, out.Answer, out.Stored, out.Updated = true, rec.Answer, true, changed
	return out, nil
}

// Resolve implements the pipeline's answer store contract.
func (s *Service) Resolve(ctx context.Context, q string, intent model.Intent) (model.Lookup, error) {
	a, err := s.Lookup(ctx, q, intent)
	if err != nil {
		return model.Lookup{}, err
	}
	return model.Lookup{Found: a.Found, Answer: a.Answer, Source: a.Source}, nil
}

// Upsert implements the pipeline's answer store contract.
func (s *Service) Upsert(ctx context.Context, rec model.AnswerRecord) (model.UpsertResult, error) {
	a, err := s.Remember(ctx, rec)
	if err != nil {
		return model.UpsertResult{}, err
	}
	return model.UpsertResult{Updated: a.Updated}, nil
}

// Profile returns the stored profile, or nil when none was saved.
func (s *Service) Profile(ctx context.Context) (*model.Profile, error) {
	p, err := s.store.LoadProfile(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

// SaveProfile replaces the stored profile.
func (s *Service) SaveProfile(ctx context.Context, p model.Profile) error {
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// ParseResume extracts a profile from résumé text and stores it.
func (s *Service) ParseResume(ctx context.Context, text string) (model.Profile, error) {
	if strings.TrimSpace(text) == "" {
		return model.Profile{}, ErrEmptyResume
	}
	p := profile.Parse(text)
	if err := s.SaveProfile(ctx, p); err != nil {
		return model.Profile{}, err
	}
	s.logger.Info(ctx, "resume parsed",
		logger.String("name", p.FullName),
		logger.Int("skills", len(p.Skills)))
	return p, nil
}

// History returns stored records, most recent first. limit <= 0 uses the
// configured default, which itself may be unlimited.
func (s *Service) History(ctx context.Context, limit int) ([]model.AnswerRecord, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	recs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return recs, nil
}

// OpenQuestion drafts an answer. A missing profile summary is filled from the
// stored profile. Drafting failures are reported through Source, not as errors.
func (s *Service) OpenQuestion(ctx context.Context, req model.DraftRequest) (OpenAnswer, error) {
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return OpenAnswer{}, ErrEmptyQuestion
	}
	if strings.TrimSpace(req.ProfileSummary) == "" {
		if p, err := s.Profile(ctx); err == nil && p != nil {
			req.ProfileSummary = profile.Summary(p)
		}
	}
	out := OpenAnswer{
		Question:        req.Question,
		Source:          DraftUnavailable,
		ResumeIncluded:  strings.TrimSpace(req.ProfileSummary) != "",
		ContextIncluded: !req.Job.Empty(),
	}
	if s.drafter == nil {
		return out, nil
	}

	s.drafts.Add(1)
	start := time.Now()
	text, err := s.drafter.Draft(ctx, req)
	metrics.RecordDraftLatency(metrics.Since(start))
	if err != nil {
		metrics.RecordDraftError()
		s.logger.Warn(ctx, "draft failed", logger.String("question", req.Question), logger.Error(err))
		out.Source = DraftFallback
		return out, nil
	}
	out.Draft, out.Source = strings.TrimSpace(text), DraftGenerated
	return out, nil
}

// Draft implements the pipeline's drafting contract.
func (s *Service) Draft(ctx context.Context, req model.DraftRequest) (string, error) {
	a, err := s.OpenQuestion(ctx, req)
	if err != nil {
		return "", err
	}
	return a.Draft, nil
}

// Stats returns service counters.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"lookups":           s.lookups.Load(),
		"hits":              s.hits.Load(),
		"writes":            s.writes.Load(),
		"drafts":            s.drafts.Load(),
		"drafter_available": s.drafter != nil,
	}
	if n, err := s.store.Count(ctx); err == nil {
		stats["answers"] = n
	}
	return stats
}
