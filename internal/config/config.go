// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and FORMFILL_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Store drivers understood by the backend.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the backend HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// BackendURL is where the autofill pipeline reaches the answer backend.
	// Empty means the pipeline talks to an in-process store.
	BackendURL string `koanf:"backend_url"`

	// HTTPTimeoutMS bounds every call made to the backend.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// AutoDraftOpenEnded enables the generated tier for open-ended questions.
	AutoDraftOpenEnded bool `koanf:"auto_draft_open_ended"`

	// ResolveConcurrency is the number of controls resolved in parallel. 1 is sequential.
	ResolveConcurrency int `koanf:"resolve_concurrency"`

	// ObserverQueueSize bounds the capture write queue.
	ObserverQueueSize int `koanf:"observer_queue_size"`

	// ObserverWorkers sets the number of capture writers.
	ObserverWorkers int `koanf:"observer_workers"`

	// StoreDriver is memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the SQLite database file.
	StorePath string `koanf:"store_path"`

	// RulesFile optionally replaces the intent rule table (YAML).
	RulesFile string `koanf:"rules_file"`

	// GeminiAPIKey enables drafting through Gemini.
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// GeminiModel is the preferred drafting model.
	GeminiModel string `koanf:"gemini_model"`

	// BrowserBin overrides the Chromium binary used for live pages.
	BrowserBin string `koanf:"browser_bin"`

	// BrowserControlURL attaches to a running browser's DevTools endpoint
	// instead of launching one.
	BrowserControlURL string `koanf:"browser_control_url"`

	// Headless runs the browser without a window.
	Headless bool `koanf:"headless"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":8000",
		HTTPTimeoutMS:      10_000,
		AutoDraftOpenEnded: true,
		ResolveConcurrency: 1,
		ObserverQueueSize:  1024,
		ObserverWorkers:    2,
		StoreDriver:        StoreSQLite,
		StorePath:          "formfill.db",
		GeminiModel:        "gemini-2.5-flash",
		Headless:           true,
	}
}

// HTTPTimeout returns the backend call timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// Validate checks the values that cannot be defaulted away.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.HTTPTimeoutMS <= 0:
		return fmt.Errorf("%w: http_timeout_ms must be positive", ErrInvalidConfig)
	case c.ResolveConcurrency < 1:
		return fmt.Errorf("%w: resolve_concurrency must be at least 1", ErrInvalidConfig)
	case c.ObserverQueueSize < 1:
		return fmt.Errorf("%w: observer_queue_size must be at least 1", ErrInvalidConfig)
	case c.ObserverWorkers < 1:
		return fmt.Errorf("%w: observer_workers must be at least 1", ErrInvalidConfig)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.StorePath) == "" {
			return fmt.Errorf("%w: store_path is required for sqlite", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: backend_url %q is not an absolute URL", ErrInvalidConfig, c.BackendURL)
		}
	}
	return nil
}
