package service

import (
	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/resolve"
	"github.com/okian/formfill/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDocument sets the page the service fills.
func WithDocument(doc dom.Document) Option {
	return func(s *Service) {
		if doc != nil {
			s.doc = doc
		}
	}
}

// WithAnswerStore sets the answer store.
func WithAnswerStore(store Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithProfileProvider sets the profile source.
func WithProfileProvider(p resolve.ProfileProvider) Option {
	return func(s *Service) {
		if p != nil {
			s.profiles = p
		}
	}
}

// WithDrafter sets the drafting service.
func WithDrafter(d resolve.Drafter) Option {
	return func(s *Service) {
		if d != nil {
			s.drafter = d
		}
	}
}

// WithClassifier sets the intent classifier.
func WithClassifier(c *intent.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithAutoDraft toggles drafting of open-ended answers.
func WithAutoDraft(enabled bool) Option {
	return func(s *Service) {
		s.autoDraft = enabled
	}
}

// WithResolveConcurrency sets how many controls are resolved at once.
func WithResolveConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithWorkerCount sets the number of capture writers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending captures.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobContext sets job details passed to the drafter.
func WithJobContext(job model.JobContext) Option {
	return func(s *Service) {
		s.job = job
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
