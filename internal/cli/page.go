package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/formfill/internal/adapters/browser"
	"github.com/okian/formfill/internal/adapters/htmldoc"
	service "github.com/okian/formfill/internal/app"
	"github.com/okian/formfill/internal/config"
	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/logger"
)

// isLive reports whether target should be opened in a browser rather than
// parsed from disk.
func isLive(target string) bool {
	u, err := url.Parse(target)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// openPage binds a document to target: http(s) URLs open in Chromium, anything
// else is read as a local HTML file. The returned func releases the page.
func openPage(ctx context.Context, cfg *config.Config, target string) (dom.Document, func(), error) {
	if !isLive(target) {
		doc, err := openFile(target)
		if err != nil {
			return nil, nil, err
		}
		return doc, func() {}, nil
	}

	b, err := browser.Launch(ctx,
		browser.WithHeadless(cfg.Headless),
		browser.WithBin(cfg.BrowserBin),
		browser.WithControlURL(cfg.BrowserControlURL),
		browser.WithBrowserLogger(logger.Named("browser")),
	)
	if err != nil {
		return nil, nil, err
	}
	doc, err := b.Open(ctx, target)
	if err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	release := func() {
		if err := errors.Join(doc.Close(), b.Close()); err != nil {
			logger.Get().Warn(ctx, "browser close failed", logger.Error(err))
		}
	}
	return doc, release, nil
}

func openFile(path string) (*htmldoc.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return htmldoc.Parse(f, htmldoc.WithPage(dom.Page{URL: "file://" + filepath.ToSlash(abs)}))
}

// pipelineFlags are the per-run overrides shared by fill and save.
type pipelineFlags struct {
	backendURL  string
	rulesFile   string
	noDraft     bool
	concurrency int
	headed      bool
	company     string
	role        string
	description string
}

func (f *pipelineFlags) apply(cfg *config.Config) {
	if f.backendURL != "" {
		cfg.BackendURL = f.backendURL
	}
	if f.rulesFile != "" {
		cfg.RulesFile = f.rulesFile
	}
	if f.noDraft {
		cfg.AutoDraftOpenEnded = false
	}
	if f.concurrency > 0 {
		cfg.ResolveConcurrency = f.concurrency
	}
	if f.headed {
		cfg.Headless = false
	}
}

func (f *pipelineFlags) job() (model.JobContext, error) {
	job := model.JobContext{Company: f.company, Role: f.role}
	if f.description != "" {
		b, err := os.ReadFile(f.description)
		if err != nil {
			return job, fmt.Errorf("read job description: %w", err)
		}
		job.Description = strings.TrimSpace(string(b))
	}
	return job, nil
}

// loadClassifier builds the classifier from the configured rules file, or the
// built-in table when none is set.
func loadClassifier(cfg *config.Config) (*intent.Classifier, error) {
	if cfg.RulesFile == "" {
		return intent.New(nil), nil
	}
	rules, err := intent.LoadRulesFile(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	return intent.New(rules), nil
}

func newPipeline(cfg *config.Config, doc dom.Document, answers answerBackend, classifier *intent.Classifier, job model.JobContext) *service.Service {
	return service.New(
		service.WithDocument(doc),
		service.WithAnswerStore(answers),
		service.WithProfileProvider(answers),
		service.WithDrafter(answers),
		service.WithClassifier(classifier),
		service.WithAutoDraft(cfg.AutoDraftOpenEnded),
		service.WithResolveConcurrency(cfg.ResolveConcurrency),
		service.WithWorkerCount(cfg.ObserverWorkers),
		service.WithQueueSize(cfg.ObserverQueueSize),
		service.WithJobContext(job),
		service.WithLogger(logger.Named("orchestrator")),
	)
}
