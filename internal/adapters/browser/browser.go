package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/okian/formfill/pkg/logger"
)

// Browser owns a Chromium process, or a connection to an existing one.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   logger.Logger
}

type config struct {
	headless   bool
	bin        string
	controlURL string
	logger     logger.Logger
}

// LaunchOption configures Launch.
type LaunchOption func(*config)

// WithHeadless toggles headless mode.
func WithHeadless(headless bool) LaunchOption {
	return func(c *config) { c.headless = headless }
}

// WithBin sets the browser executable. Empty means auto-detect.
func WithBin(path string) LaunchOption {
	return func(c *config) {
		if path != "" {
			c.bin = path
		}
	}
}

// WithControlURL connects to a running browser's DevTools endpoint instead of launching one.
func WithControlURL(u string) LaunchOption {
	return func(c *config) {
		if u != "" {
			c.controlURL = u
		}
	}
}

// WithBrowserLogger sets a custom logger for the Browser and its documents.
func WithBrowserLogger(l logger.Logger) LaunchOption {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Launch starts or connects to a browser.
func Launch(ctx context.Context, opts ...LaunchOption) (*Browser, error) {
	cfg := config{headless: true, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Browser{logger: cfg.logger}
	controlURL := cfg.controlURL
	if controlURL == "" {
		if cfg.bin == "" {
			if path, ok := launcher.LookPath(); ok {
				cfg.bin = path
			} else {
				return nil, ErrNoBrowser
			}
		}
		b.launcher = launcher.New().Bin(cfg.bin).Headless(cfg.headless).Context(ctx)
		u, err := b.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	b.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.browser.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	cfg.logger.Info(ctx, "browser connected", logger.Bool("headless", cfg.headless))
	return b, nil
}

// Open navigates a new tab to url, waits for load and binds a Document to it.
func (b *Browser) Open(ctx context.Context, url string) (*Document, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	page = page.Context(ctx)
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("load %s: %w", url, err)
	}
	return NewDocument(ctx, page, WithLogger(b.logger.Named("page")))
}

// Close disconnects and, when launched here, kills the browser.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.cleanup()
	return err
}

func (b *Browser) cleanup() {
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
}
