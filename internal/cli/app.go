package cli

import (
	"context"
	"fmt"

	"github.com/okian/formfill/internal/adapters/drafting"
	"github.com/okian/formfill/internal/adapters/http/client"
	"github.com/okian/formfill/internal/adapters/repository"
	"github.com/okian/formfill/internal/backend"
	"github.com/okian/formfill/internal/config"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/resolve"
	"github.com/okian/formfill/pkg/logger"
)

// answerBackend is what the commands need from the answer backend, whether
// it runs in this process or behind the HTTP API.
type answerBackend interface {
	resolve.AnswerStore
	resolve.ProfileProvider
	resolve.Drafter
	ParseResume(ctx context.Context, text string) (model.Profile, error)
	History(ctx context.Context, limit int) ([]model.AnswerRecord, error)
}

var (
	_ answerBackend = (*backend.Service)(nil)
	_ answerBackend = (*client.Client)(nil)
)

// AppContext holds the in-process backend and the store behind it.
type AppContext struct {
	Store   repository.Store
	Backend *backend.Service
}

// NewAppContext opens the configured store and builds the backend on it.
// Drafting is enabled when a Gemini API key is configured.
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []backend.Option{backend.WithLogger(logger.Named("backend"))}
	if cfg.GeminiAPIKey != "" {
		d, err := drafting.NewGemini(ctx, cfg.GeminiAPIKey,
			drafting.WithModel(cfg.GeminiModel),
			drafting.WithLogger(logger.Named("drafting")),
		)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize drafting: %w", err)
		}
		opts = append(opts, backend.WithDrafter(d))
	}

	return &AppContext{
		Store:   store,
		Backend: backend.New(store, opts...),
	}, nil
}

// Close releases the store.
func (a *AppContext) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return repository.NewMemoryStore(ctx), nil
	case config.StoreSQLite:
		s, err := repository.NewSQLiteStore(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// openBackend returns the remote backend when a backend URL is configured and
// an in-process one otherwise. The returned func releases it.
func openBackend(ctx context.Context, cfg *config.Config) (answerBackend, func() error, error) {
	if cfg.BackendURL != "" {
		c := client.New(cfg.BackendURL,
			client.WithTimeout(cfg.HTTPTimeout()),
			client.WithLogger(logger.Named("client")),
		)
		return c, func() error { return nil }, nil
	}
	app, err := NewAppContext(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app.Backend, app.Close, nil
}
