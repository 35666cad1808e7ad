// Package observe learns answers from the page: the Observer captures user
// choices as they happen, the Saver persists every current value on demand.
package observe

import (
	"context"
	"sync"
	"time"

	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/label"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/question"
	"github.com/okian/formfill/internal/domain/registry"
	"github.com/okian/formfill/internal/domain/scan"
	"github.com/okian/formfill/pkg/logger"
	"github.com/okian/formfill/pkg/metrics"
	"golang.org/x/net/html"
)

// Enqueuer accepts captures for asynchronous storage without blocking.
type Enqueuer interface {
	Enqueue(ctx context.Context, rec model.AnswerRecord) bool
}

// Observer wires listeners onto closed-choice controls.
type Observer struct {
	doc        dom.Document
	classifier *intent.Classifier
	wired      registry.Registry
	sink       Enqueuer
	logger     logger.Logger
	now        func() time.Time

	mu          sync.Mutex
	lastClicked map[string]*html.Node
}

// Option configures an Observer.
type Option func(*Observer)

// WithClassifier sets the classifier used to tag captures.
func WithClassifier(c *intent.Classifier) Option {
	return func(o *Observer) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithRegistry sets the wired-element registry.
func WithRegistry(r registry.Registry) Option {
	return func(o *Observer) {
		if r != nil {
			o.wired = r
		}
	}
}

// WithLogger sets the observer logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Observer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the capture time source.
func WithClock(now func() time.Time) Option {
	return func(o *Observer) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an Observer that sends captures to sink.
func New(doc dom.Document, sink Enqueuer, opts ...Option) *Observer {
	o := &Observer{
		doc:         doc,
		classifier:  intent.New(nil),
		wired:       registry.New(),
		sink:        sink,
		logger:      logger.NewNop(),
		now:         time.Now,
		lastClicked: make(map[string]*html.Node),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Wire attaches listeners to every element of the closed-choice controls.
// Elements wired earlier are left alone. Returns the number of new listeners.
func (o *Observer) Wire(ctx context.Context, controls []scan.Control) int {
	n := 0
	for _, c := range controls {
		if !c.Kind.ClosedChoice() {
			continue
		}
		ev := dom.EventChange
		if c.Kind == model.KindButtonGroup {
			ev = dom.EventClick
		}
		for _, el := range c.Elements {
			key := o.doc.Key(el)
			if key == "" || o.wired.SeenAndRecord(ctx, key) {
				continue
			}
			if err := o.doc.Listen(el, ev, o.handler(c)); err != nil {
				o.wired.Unrecord(ctx, key)
				o.logger.Warn(ctx, "listener not attached", logger.Int("control", c.ID), logger.Error(err))
				continue
			}
			n++
		}
	}
	if n > 0 {
		o.logger.Debug(ctx, "listeners wired", logger.Int("count", n))
	}
	return n
}

// Wired returns how many elements carry listeners.
func (o *Observer) Wired() int64 {
	return o.wired.Size()
}

// Reset forgets wired elements and remembered clicks, for a document whose
// tree was replaced and whose listeners are gone.
func (o *Observer) Reset(ctx context.Context) {
	o.wired.Reset(ctx)
	o.mu.Lock()
	o.lastClicked = make(map[string]*html.Node)
	o.mu.Unlock()
}

// LastClicked returns the button last clicked in a button group, or nil.
func (o *Observer) LastClicked(c scan.Control) *html.Node {
	if c.Kind != model.KindButtonGroup || c.Container == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastClicked[o.doc.Key(c.Container)]
}

func (o *Observer) handler(c scan.Control) dom.Listener {
	return func(ctx context.Context, target *html.Node, _ dom.Event) {
		var last *html.Node
		if c.Kind == model.KindButtonGroup && c.Container != nil {
			o.mu.Lock()
			o.lastClicked[o.doc.Key(c.Container)] = target
			o.mu.Unlock()
			last = target
		}
		o.capture(ctx, c, last)
	}
}

func (o *Observer) capture(ctx context.Context, c scan.Control, last *html.Node) {
	var answer string
	if last != nil {
		// the click is what the user chose, whatever classes the page sets later
		answer = dom.Text(last)
	} else {
		answer = Answer(o.doc, label.New(o.doc.Root()), c, nil)
	}
	if answer == "" || c.Question == "" {
		return
	}

	rec := model.AnswerRecord{
		Question:  c.Question,
		Key:       question.Normalize(c.Question),
		Answer:    answer,
		Choices:   c.Choices,
		Intent:    o.classifier.Classify(c.Question),
		UpdatedAt: o.now(),
	}
	if o.sink == nil || !o.sink.Enqueue(ctx, rec) {
		metrics.RecordCapture("dropped")
		o.logger.Warn(ctx, "capture dropped", logger.String("question", c.Question))
		return
	}
	metrics.RecordCapture("queued")
	o.logger.Debug(ctx, "capture queued", logger.String("question", c.Question), logger.String("answer", answer))
}
