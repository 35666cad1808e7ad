package backend

import (
	"github.com/okian/formfill/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDrafter sets the drafting client used for open questions.
func WithDrafter(d Drafter) Option {
	return func(s *Service) {
		if d != nil {
			s.drafter = d
		}
	}
}

// WithHistoryLimit caps how many records History returns by default.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithLogger sets a custom logger for the Service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
