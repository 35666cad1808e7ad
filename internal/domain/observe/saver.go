package observe

import (
	"context"
	"time"

	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/label"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/question"
	"github.com/okian/formfill/internal/domain/scan"
	"github.com/okian/formfill/pkg/logger"
	"github.com/okian/formfill/pkg/metrics"
	"golang.org/x/net/html"
)

// Upserter writes one answer.
type Upserter interface {
	Upsert(ctx context.Context, rec model.AnswerRecord) (model.UpsertResult, error)
}

// ClickMemory remembers the last clicked button of a group.
type ClickMemory interface {
	LastClicked(c scan.Control) *html.Node
}

// Saver persists the current value of every eligible control.
type Saver struct {
	doc        dom.Document
	store      Upserter
	labels     *label.Resolver
	classifier *intent.Classifier
	clicks     ClickMemory
	logger     logger.Logger
	now        func() time.Time
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithSaverClassifier sets the classifier used to tag saved answers.
func WithSaverClassifier(c *intent.Classifier) SaverOption {
	return func(s *Saver) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithClickMemory lets the saver fall back to remembered button clicks.
func WithClickMemory(m ClickMemory) SaverOption {
	return func(s *Saver) {
		if m != nil {
			s.clicks = m
		}
	}
}

// WithSaverLogger sets the saver logger.
func WithSaverLogger(l logger.Logger) SaverOption {
	return func(s *Saver) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSaver creates a Saver writing to store.
func NewSaver(doc dom.Document, store Upserter, opts ...SaverOption) *Saver {
	s := &Saver{
		doc:        doc,
		store:      store,
		labels:     label.New(doc.Root()),
		classifier: intent.New(nil),
		logger:     logger.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save upserts every control that holds an answer. Free-text controls whose
// question asks for prose are skipped. Failures are counted, never retried.
func (s *Saver) Save(ctx context.Context, controls []scan.Control) model.SaveSummary {
	var sum model.SaveSummary
	for _, c := range controls {
		switch s.saveOne(ctx, c) {
		case "saved":
			sum.Saved++
		case "updated":
			sum.Updated++
		case "failed":
			sum.Failed++
		default:
			sum.Skipped++
		}
	}
	s.logger.Info(ctx, "save pass finished",
		logger.Int("saved", sum.Saved),
		logger.Int("updated", sum.Updated),
		logger.Int("failed", sum.Failed),
		logger.Int("skipped", sum.Skipped),
	)
	return sum
}

func (s *Saver) saveOne(ctx context.Context, c scan.Control) string {
	if c.Question == "" {
		return "skipped"
	}
	if c.Kind.FreeText() && question.IsOpenEnded(c.Question) {
		return "skipped"
	}
	var last *html.Node
	if s.clicks != nil {
		last = s.clicks.LastClicked(c)
	}
	answer := Answer(s.doc, s.labels, c, last)
	if answer == "" {
		return "skipped"
	}

	start := time.Now()
	res, err := s.store.Upsert(ctx, model.AnswerRecord{
		Question:  c.Question,
		Key:       question.Normalize(c.Question),
		Answer:    answer,
		Choices:   c.Choices,
		Intent:    s.classifier.Classify(c.Question),
		UpdatedAt: s.now(),
	})
	metrics.RecordStoreLatency("upsert", metrics.Since(start))

	result := "saved"
	switch {
	case err != nil:
		result = "failed"
		metrics.RecordStoreError("upsert")
		s.logger.Warn(ctx, "answer not saved", logger.String("question", c.Question), logger.Error(err))
	case res.Updated:
		result = "updated"
	}
	metrics.RecordSaveResult(result)
	return result
}
