// Package client talks to the answer backend over HTTP. It satisfies the
// pipeline's answer store, profile and drafting contracts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/logger"
	"github.com/okian/formfill/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the Client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client is an answer backend client.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	logger  logger.Logger
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: defaultTimeout,
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type closedQuestion struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Intent   string   `json:"intent,omitempty"`
}

type closedAnswer struct {
	Found   bool   `json:"found"`
	Answer  string `json:"answer"`
	Source  string `json:"source"`
	Updated bool   `json:"updated"`
}

type openAnswer struct {
	Draft  string `json:"draft"`
	Source string `json:"source"`
}

// Resolve looks up a stored answer.
func (c *Client) Resolve(ctx context.Context, question string, intent model.Intent) (model.Lookup, error) {
	var out closedAnswer
	err := c.post(ctx, "/closed-question", closedQuestion{Question: question, Intent: string(intent)}, &out)
	if err != nil {
		return model.Lookup{}, err
	}
	source := out.Source
	if out.Found && source == "" {
		source = model.LookupByQuestion
	}
	return model.Lookup{Found: out.Found, Answer: out.Answer, Source: source}, nil
}

// Upsert stores an answer.
func (c *Client) Upsert(ctx context.Context, rec model.AnswerRecord) (model.UpsertResult, error) {
	var out closedAnswer
	err := c.post(ctx, "/closed-question", closedQuestion{
		Question: rec.Question,
		Answer:   rec.Answer,
		Choices:  rec.Choices,
		Intent:   string(rec.Intent),
	}, &out)
	if err != nil {
		return model.UpsertResult{}, err
	}
	return model.UpsertResult{Updated: out.Updated}, nil
}

// Profile fetches the stored profile. A 404 means none is stored.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, http.MethodGet, "/resume", nil, &p)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Draft requests an open-ended draft. Fallback and unavailable drafts come back empty.
func (c *Client) Draft(ctx context.Context, req model.DraftRequest) (string, error) {
	var out openAnswer
	if err := c.post(ctx, "/open-question", req, &out); err != nil {
		return "", err
	}
	if out.Source != "generated" {
		return "", nil
	}
	return out.Draft, nil
}

// ParseResume uploads résumé text for the backend to parse and store.
func (c *Client) ParseResume(ctx context.Context, text string) (model.Profile, error) {
	var out struct {
		Resume model.Profile `json:"resume"`
	}
	err := c.send(ctx, http.MethodPost, "/parse-resume", "text/plain; charset=utf-8", strings.NewReader(text), &out)
	if err != nil {
		return model.Profile{}, err
	}
	return out.Resume, nil
}

// History lists stored answers, most recent first.
func (c *Client) History(ctx context.Context, limit int) ([]model.AnswerRecord, error) {
	path := "/qa-history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var out struct {
		Records []model.AnswerRecord `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}
	return c.send(ctx, method, path, contentType, body, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	op, _, _ := strings.Cut(path, "?")
	op = "http" + op
	start := time.Now()
	defer func() { metrics.RecordStoreLatency(op, metrics.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordStoreError(op)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		if resp.StatusCode != http.StatusNotFound {
			metrics.RecordStoreError(op)
		}
		c.logger.Debug(ctx, "backend call failed",
			logger.String("path", path),
			logger.Int("status", resp.StatusCode))
		return &StatusError{Path: path, Code: resp.StatusCode, Message: e.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
