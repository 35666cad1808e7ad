// Package drafting generates open-ended answers with Gemini.
package drafting

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/logger"
	"google.golang.org/genai"
)

// DefaultModel is tried when the configured model fails.
const DefaultModel = "gemini-1.5-flash"

// Generator produces text for a prompt with a named model.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
}

func (g genaiGenerator) Generate(ctx context.Context, name, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, name, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Client drafts answers, trying the configured model then DefaultModel.
type Client struct {
	gen    Generator
	model  string
	logger logger.Logger
}

// New creates a Client over an arbitrary Generator.
func New(gen Generator, opts ...Option) *Client {
	c := &Client{
		gen:    gen,
		model:  DefaultModel,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewGemini creates a Client backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return New(genaiGenerator{client: client}, opts...), nil
}

// Models returns the models tried, in order.
func (c *Client) Models() []string {
	if c.model == DefaultModel {
		return []string{DefaultModel}
	}
	return []string{c.model, DefaultModel}
}

// Draft implements the drafting contract. The returned text is plain: any
// markup the model emits is stripped.
func (c *Client) Draft(ctx context.Context, req model.DraftRequest) (string, error) {
	prompt := Prompt(req)

	var errs []error
	for _, name := range c.Models() {
		text, err := c.gen.Generate(ctx, name, prompt)
		if err == nil {
			text = Sanitize(text)
			if text != "" {
				return text, nil
			}
			err = ErrEmptyDraft
		}
		c.logger.Warn(ctx, "draft model failed", logger.String("model", name), logger.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.Join(errs...)
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize strips markup from generated text and trims it.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	policyOnce.Do(func() { policy = bluemonday.StrictPolicy() })
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(trimmed)))
}
