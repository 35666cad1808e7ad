// Package service drives autofill and save passes over one document.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	capturequeue "github.com/okian/formfill/internal/adapters/mq/queue"
	workerpool "github.com/okian/formfill/internal/adapters/mq/worker"
	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/fill"
	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/observe"
	"github.com/okian/formfill/internal/domain/resolve"
	"github.com/okian/formfill/internal/domain/scan"
	"github.com/okian/formfill/pkg/logger"
	"github.com/okian/formfill/pkg/metrics"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// Store is the answer store the service reads and writes.
type Store interface {
	resolve.AnswerStore
}

// Service runs the pipeline for one page: scan, classify, resolve and apply
// per control, plus listener wiring and the bulk save pass.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	doc        dom.Document
	store      Store
	profiles   resolve.ProfileProvider
	drafter    resolve.Drafter
	classifier *intent.Classifier

	// Configuration
	autoDraft   bool
	concurrency int
	workerCount int
	queueSize   int
	job         model.JobContext

	// Built by Start
	scanner  *scan.Scanner
	resolver *resolve.Resolver
	observer *observe.Observer
	queue    *capturequeue.InMemoryQueue
	pool     *workerpool.Pool
	root     *html.Node

	// State
	started bool
	passes  atomic.Int64
	saves   atomic.Int64
	last    model.PassSummary

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		classifier:  intent.New(nil),
		autoDraft:   true,
		concurrency: 1,
		workerCount: 2,
		queueSize:   1024,
		logger:      nil, // replaced when the service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the pipeline components and starts the capture writers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.doc == nil {
		return ErrNoDocument
	}
	if s.store == nil {
		return ErrNoStore
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("orchestrator")
	}

	s.logger.Info(ctx, "starting autofill service...", logger.String("url", s.doc.Page().URL))

	s.scanner = scan.New(scan.WithLogger(s.logger.Named("scanner")))
	s.resolver = resolve.New(
		resolve.WithProfileProvider(s.profiles),
		resolve.WithAnswerStore(s.store),
		resolve.WithDrafter(s.drafter),
		resolve.WithAutoDraft(s.autoDraft),
		resolve.WithLogger(s.logger.Named("resolver")),
	)
	s.queue = capturequeue.NewInMemoryQueue(
		capturequeue.WithCapacity(s.queueSize),
		capturequeue.WithBufferSize(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)
	s.observer = observe.New(s.doc, s.queue,
		observe.WithClassifier(s.classifier),
		observe.WithLogger(s.logger.Named("observer")),
	)
	s.root = s.doc.Root()

	s.started = true
	s.logger.Info(ctx, "autofill service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("concurrency", s.concurrency),
		logger.Bool("autoDraft", s.autoDraft),
	)
	return nil
}

// Stop drains pending captures and stops the writers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping autofill service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "autofill service stopped",
		logger.Any("captures_stored", s.pool.Stored()),
		logger.Any("captures_failed", s.pool.Failed()),
	)
	return err
}

// Init scans the page and wires listeners onto closed-choice controls.
// Calling it again only wires controls that appeared since.
func (s *Service) Init(ctx context.Context) (int, error) {
	controls, err := s.scan(ctx)
	if err != nil {
		return 0, err
	}
	return s.observer.Wire(ctx, controls), nil
}

// Autofill runs one pass over every control. Per-control problems end up in
// the summary; the error is only for a pass that could not run.
func (s *Service) Autofill(ctx context.Context) (model.PassSummary, error) {
	start := time.Now()
	controls, err := s.scan(ctx)
	if err != nil {
		return model.PassSummary{}, err
	}

	pass := resolve.NewPass(uuid.NewString(), s.jobContext())
	applicator := fill.New(s.doc, fill.WithLogger(s.logger.Named("applicator")))
	reports := make([]model.ControlReport, len(controls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range controls {
		g.Go(func() error {
			reports[i] = s.unit(gctx, pass, applicator, controls[i])
			return nil
		})
	}
	_ = g.Wait()

	sum := model.PassSummary{PassID: pass.ID}
	for _, r := range reports {
		sum.Add(r)
		metrics.RecordPassOutcome(string(r.Outcome))
	}
	s.observer.Wire(ctx, controls)

	s.passes.Add(1)
	s.mu.Lock()
	s.last = sum
	s.mu.Unlock()

	metrics.RecordPassDuration(metrics.Since(start))
	s.logger.Info(ctx, "autofill pass finished",
		logger.String("pass", pass.ID),
		logger.Int("controls", sum.Controls),
		logger.Int("resolved", sum.Resolved),
		logger.Int("unresolved", sum.Unresolved),
		logger.Int("unmatched", sum.Unmatched),
		logger.Int("skipped", sum.Skipped),
		logger.Int("failed", sum.Failed),
		logger.Duration("took", time.Since(start)),
	)
	return sum, nil
}

// unit classifies, resolves and applies one control. It never mutates the
// document unless a value was resolved.
func (s *Service) unit(ctx context.Context, pass *resolve.Pass, app *fill.Applicator, c scan.Control) model.ControlReport {
	report := model.ControlReport{Control: c.FormControl, Source: model.SourceNone}

	if c.Prefilled() {
		report.Outcome = model.OutcomeSkipped
		return report
	}
	if c.Question == "" {
		s.logger.Debug(ctx, "control has no question", logger.Int("control", c.ID))
		report.Outcome = model.OutcomeSkipped
		return report
	}
	if ctx.Err() != nil {
		report.Outcome = model.OutcomeSkipped
		report.Error = ctx.Err().Error()
		return report
	}

	report.Intent = s.classifier.Classify(c.Question)
	res := s.resolver.Resolve(ctx, pass, c.FormControl, report.Intent)
	if !res.Resolved() {
		report.Outcome = model.OutcomeUnresolved
		return report
	}
	report.Value, report.Source = res.Value, res.Source

	outcome, err := app.Apply(ctx, c, res.Value)
	report.Outcome = outcome
	if err != nil {
		report.Error = err.Error()
		metrics.RecordErrorByComponent("applicator", "apply")
		s.logger.Warn(ctx, "apply failed", logger.Int("control", c.ID), logger.Error(err))
	}
	return report
}

// Save persists the current value of every eligible control.
func (s *Service) Save(ctx context.Context) (model.SaveSummary, error) {
	controls, err := s.scan(ctx)
	if err != nil {
		return model.SaveSummary{}, err
	}
	saver := observe.NewSaver(s.doc, s.store,
		observe.WithSaverClassifier(s.classifier),
		observe.WithClickMemory(s.observer),
		observe.WithSaverLogger(s.logger.Named("saver")),
	)
	sum := saver.Save(ctx, controls)
	s.saves.Add(1)
	return sum, nil
}

// Controls scans the page without changing it.
func (s *Service) Controls(ctx context.Context) ([]scan.Control, error) {
	return s.scan(ctx)
}

// scan refreshes live documents and enumerates controls. A replaced tree
// loses its listeners, so the observer starts over.
func (s *Service) scan(ctx context.Context) ([]scan.Control, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	if r, ok := s.doc.(dom.Refresher); ok {
		if err := r.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("refresh document: %w", err)
		}
	}
	if root := s.doc.Root(); root != s.root {
		s.observer.Reset(ctx)
		s.root = root
	}
	return s.scanner.Scan(ctx, s.doc), nil
}

func (s *Service) jobContext() model.JobContext {
	job := s.job
	page := s.doc.Page()
	if job.URL == "" {
		job.URL = page.URL
	}
	if job.Role == "" {
		job.Role = page.Title
	}
	if job.Company == "" {
		job.Company = page.Host
	}
	return job
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"concurrency": s.concurrency,
		"autoDraft":   s.autoDraft,
		"passes":      s.passes.Load(),
		"saves":       s.saves.Load(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["wired"] = s.observer.Wired()
		stats["capturesStored"] = s.pool.Stored()
		stats["capturesFailed"] = s.pool.Failed()
		stats["lastPass"] = map[string]int{
			"controls":   s.last.Controls,
			"resolved":   s.last.Resolved,
			"unresolved": s.last.Unresolved,
			"unmatched":  s.last.Unmatched,
			"failed":     s.last.Failed,
		}
	}

	return stats
}
