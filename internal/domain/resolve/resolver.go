// Package resolve picks an answer for a control through ordered tiers:
// profile data, the answer store, choice heuristics and generated drafts.
package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/profile"
	"github.com/okian/formfill/internal/domain/question"
	"github.com/okian/formfill/pkg/logger"
	"github.com/okian/formfill/pkg/metrics"
)

// Resolver runs the tiers. Missing collaborators skip their tier.
type Resolver struct {
	profiles    ProfileProvider
	store       AnswerStore
	drafter     Drafter
	autoDraft   bool
	preferences map[model.Intent][]Preference
	logger      logger.Logger
	now         func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProfileProvider sets the profile tier source.
func WithProfileProvider(p ProfileProvider) Option {
	return func(r *Resolver) {
		if p != nil {
			r.profiles = p
		}
	}
}

// WithAnswerStore sets the store used by the store and heuristic tiers.
func WithAnswerStore(s AnswerStore) Option {
	return func(r *Resolver) {
		if s != nil {
			r.store = s
		}
	}
}

// WithDrafter sets the generated tier source.
func WithDrafter(d Drafter) Option {
	return func(r *Resolver) {
		if d != nil {
			r.drafter = d
		}
	}
}

// WithAutoDraft toggles drafting for open-ended controls. On by default.
func WithAutoDraft(enabled bool) Option {
	return func(r *Resolver) {
		r.autoDraft = enabled
	}
}

// WithPreferences replaces the heuristic preference table.
func WithPreferences(prefs map[model.Intent][]Preference) Option {
	return func(r *Resolver) {
		if prefs != nil {
			r.preferences = prefs
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock sets the time source for heuristic writes.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		autoDraft:   true,
		preferences: DefaultPreferences(),
		logger:      logger.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first usable value for c. Free-text controls that
// already hold a value are never resolved.
func (r *Resolver) Resolve(ctx context.Context, pass *Pass, c model.FormControl, tag model.Intent) model.Resolution {
	if c.Prefilled() {
		return model.Unresolved()
	}

	tiers := []func(context.Context, *Pass, model.FormControl, model.Intent) model.Resolution{
		r.fromProfile,
		r.fromStore,
		r.fromHeuristic,
		r.fromDraft,
	}
	for _, tier := range tiers {
		if res := tier(ctx, pass, c, tag); res.Resolved() {
			metrics.RecordResolution(string(res.Source))
			return res
		}
	}
	return model.Unresolved()
}

func (r *Resolver) fromProfile(ctx context.Context, pass *Pass, c model.FormControl, tag model.Intent) model.Resolution {
	if tag == model.IntentNone || r.profiles == nil {
		return model.Unresolved()
	}
	prof, err := pass.Profile(ctx, r.profiles)
	if err != nil {
		r.logger.Warn(ctx, "profile fetch failed", logger.String("pass", pass.ID), logger.Error(err))
		metrics.RecordErrorByComponent("resolver", "profile")
		return model.Unresolved()
	}
	v, ok := profile.Field(prof, tag)
	if !ok || strings.TrimSpace(v) == "" {
		return model.Unresolved()
	}
	return model.Resolution{Value: v, Source: model.SourceProfile}
}

func (r *Resolver) fromStore(ctx context.Context, pass *Pass, c model.FormControl, tag model.Intent) model.Resolution {
	if r.store == nil {
		return model.Unresolved()
	}
	key := question.Normalize(c.Question)
	if key == "" {
		return model.Unresolved()
	}

	l, ok := pass.cached(key)
	if !ok {
		start := time.Now()
		var err error
		l, err = r.store.Resolve(ctx, c.Question, tag)
		metrics.RecordStoreLatency("resolve", metrics.Since(start))
		if err != nil {
			r.logger.Warn(ctx, "answer lookup failed",
				logger.String("pass", pass.ID), logger.String("question", c.Question), logger.Error(err))
			metrics.RecordStoreError("resolve")
			return model.Unresolved()
		}
		pass.remember(key, l)
	}

	if !l.Found || strings.TrimSpace(l.Answer) == "" {
		return model.Unresolved()
	}
	return model.Resolution{Value: l.Answer, Source: model.SourceStore}
}

func (r *Resolver) fromHeuristic(ctx context.Context, pass *Pass, c model.FormControl, tag model.Intent) model.Resolution {
	if !c.Kind.ClosedChoice() || len(c.Choices) == 0 {
		return model.Unresolved()
	}
	prefs, ok := r.preferences[tag]
	if !ok {
		return model.Unresolved()
	}
	choice, ok := pick(prefs, c.Choices)
	if !ok {
		return model.Unresolved()
	}

	res := model.Resolution{Value: choice, Source: model.SourceHeuristic}
	if r.store == nil {
		return res
	}
	key := question.Normalize(c.Question)
	start := time.Now()
	_, err := r.store.Upsert(ctx, model.AnswerRecord{
		Question:  c.Question,
		Key:       key,
		Answer:    choice,
		Choices:   c.Choices,
		Intent:    tag,
		UpdatedAt: r.now(),
	})
	metrics.RecordStoreLatency("upsert", metrics.Since(start))
	if err != nil {
		r.logger.Warn(ctx, "heuristic answer not persisted",
			logger.String("pass", pass.ID), logger.String("question", c.Question), logger.Error(err))
		metrics.RecordStoreError("upsert")
		return res
	}
	res.Persisted = true
	if key != "" {
		pass.remember(key, model.Lookup{Found: true, Answer: choice, Source: model.LookupByQuestion})
	}
	return res
}

func (r *Resolver) fromDraft(ctx context.Context, pass *Pass, c model.FormControl, tag model.Intent) model.Resolution {
	if !r.autoDraft || r.drafter == nil || !c.OpenEnded(tag) || strings.TrimSpace(c.CurrentValue) != "" {
		return model.Unresolved()
	}

	req := model.DraftRequest{Question: c.Question, Job: pass.Job}
	if prof, err := pass.Profile(ctx, r.profiles); err == nil && prof != nil {
		req.ProfileSummary = profile.Summary(prof)
	}

	start := time.Now()
	draft, err := r.drafter.Draft(ctx, req)
	metrics.RecordDraftLatency(metrics.Since(start))
	if err != nil {
		r.logger.Warn(ctx, "draft failed",
			logger.String("pass", pass.ID), logger.String("question", c.Question), logger.Error(err))
		metrics.RecordDraftError()
		return model.Unresolved()
	}
	draft = strings.TrimSpace(draft)
	if draft == "" {
		return model.Unresolved()
	}
	return model.Resolution{Value: draft, Source: model.SourceGenerated}
}
