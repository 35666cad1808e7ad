// Package browser is a dom.Document over a live Chromium page driven by
// go-rod. Reads come from an htmldoc snapshot of the page; writes go to the
// page and the snapshot; page events reach listeners through a binding.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/okian/formfill/internal/adapters/htmldoc"
	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/pkg/logger"
	"github.com/ysmood/gson"
	"golang.org/x/net/html"
)

const bindingName = "formfillNotify"

type evaluator interface {
	eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error)
}

type rodEvaluator struct {
	page *rod.Page
}

func (r rodEvaluator) eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := r.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

// notification is the payload the page sends to the binding.
type notification struct {
	Key      string `json:"key"`
	Event    string `json:"event"`
	Value    string `json:"value"`
	Checked  bool   `json:"checked"`
	Selected int    `json:"selected"`
	Peers    []struct {
		Key     string `json:"key"`
		Checked bool   `json:"checked"`
	} `json:"peers"`
}

// Document implements dom.Document and dom.Refresher over a live page.
type Document struct {
	mu        sync.RWMutex
	ctx       context.Context
	page      evaluator
	snap      *htmldoc.Document
	listeners map[string][]listener
	stop      func() error
	logger    logger.Logger
}

type listener struct {
	ev dom.Event
	fn dom.Listener
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets a custom logger for the Document.
func WithLogger(l logger.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDocument binds to page and takes the first snapshot.
func NewDocument(ctx context.Context, page *rod.Page, opts ...Option) (*Document, error) {
	d := newDocument(ctx, rodEvaluator{page: page}, opts...)
	stop, err := page.Expose(bindingName, func(j gson.JSON) (interface{}, error) {
		d.receive(j)
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("expose binding: %w", err)
	}
	d.stop = stop
	if err := d.Refresh(ctx); err != nil {
		_ = stop()
		return nil, err
	}
	return d, nil
}

func newDocument(ctx context.Context, page evaluator, opts ...Option) *Document {
	d := &Document{
		ctx:       ctx,
		page:      page,
		listeners: make(map[string][]listener),
		logger:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close removes the page binding.
func (d *Document) Close() error {
	if d.stop == nil {
		return nil
	}
	return d.stop()
}

// Refresh re-reads the page into a new snapshot. Element keys survive, but
// the tree is new, so listeners must be attached again.
func (d *Document) Refresh(ctx context.Context) error {
	v, err := d.page.eval(ctx, snapshotJS)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	snap, err := htmldoc.ParseString(v.Get("html").Str(), htmldoc.WithPage(dom.Page{
		URL:   v.Get("url").Str(),
		Title: v.Get("title").Str(),
	}))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}

	d.mu.Lock()
	d.snap = snap
	d.listeners = make(map[string][]listener)
	d.mu.Unlock()

	d.logger.Debug(ctx, "page snapshot taken", logger.String("url", snap.Page().URL))
	return nil
}

func (d *Document) current() *htmldoc.Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// Root returns the snapshot's document node.
func (d *Document) Root() *html.Node { return d.current().Root() }

// Page returns page metadata.
func (d *Document) Page() dom.Page { return d.current().Page() }

// Key returns the element's data-formfill-key.
func (d *Document) Key(n *html.Node) string { return d.current().Key(n) }

// Visible reports visibility as computed by the page at snapshot time.
func (d *Document) Visible(n *html.Node) bool { return d.current().Visible(n) }

// Value returns the last known value.
func (d *Document) Value(n *html.Node) string { return d.current().Value(n) }

// Checked returns the last known checkedness.
func (d *Document) Checked(n *html.Node) bool { return d.current().Checked(n) }

// SelectedIndex returns the last known selection.
func (d *Document) SelectedIndex(n *html.Node) int { return d.current().SelectedIndex(n) }

// SetValue sets the value on the page through the native setter.
func (d *Document) SetValue(ctx context.Context, n *html.Node, value string) error {
	snap := d.current()
	if err := d.act(ctx, snap, n, "value", value); err != nil {
		return err
	}
	return snap.SetValue(ctx, n, value)
}

// SetChecked sets checkedness on the page.
func (d *Document) SetChecked(ctx context.Context, n *html.Node, checked bool) error {
	snap := d.current()
	if err := d.act(ctx, snap, n, "checked", checked); err != nil {
		return err
	}
	return snap.SetChecked(ctx, n, checked)
}

// Select selects the option at index on the page.
func (d *Document) Select(ctx context.Context, n *html.Node, index int) error {
	snap := d.current()
	if index < 0 || index >= len(dom.Options(n)) {
		return fmt.Errorf("select %d: %w", index, dom.ErrIndexRange)
	}
	if err := d.act(ctx, snap, n, "select", index); err != nil {
		return err
	}
	return snap.Select(ctx, n, index)
}

// Click clicks the element on the page. Listeners run when the page reports the event.
func (d *Document) Click(ctx context.Context, n *html.Node) error {
	snap := d.current()
	if err := d.act(ctx, snap, n, "click", nil); err != nil {
		return err
	}
	if dom.IsElement(n, "input") {
		switch dom.InputType(n) {
		case "radio":
			return snap.SetChecked(ctx, n, true)
		case "checkbox":
			return snap.SetChecked(ctx, n, !snap.Checked(n))
		}
	}
	return nil
}

// Dispatch fires a bubbling event on the page element.
func (d *Document) Dispatch(ctx context.Context, n *html.Node, ev dom.Event) error {
	return d.act(ctx, d.current(), n, "dispatch", string(ev))
}

// Listen forwards ev on the page element to fn.
func (d *Document) Listen(n *html.Node, ev dom.Event, fn dom.Listener) error {
	key := d.Key(n)
	if key == "" {
		return dom.ErrUnknownNode
	}
	v, err := d.page.eval(d.ctx, listenJS, key, string(ev), bindingName)
	if err != nil {
		return fmt.Errorf("listen %s on %s: %w", ev, key, err)
	}
	if !v.Bool() {
		return dom.ErrUnknownNode
	}
	d.mu.Lock()
	d.listeners[key] = append(d.listeners[key], listener{ev: ev, fn: fn})
	d.mu.Unlock()
	return nil
}

func (d *Document) act(ctx context.Context, snap *htmldoc.Document, n *html.Node, op string, arg interface{}) error {
	key := snap.Key(n)
	if key == "" {
		return dom.ErrUnknownNode
	}
	v, err := d.page.eval(ctx, actionJS, key, op, arg)
	if err != nil {
		return fmt.Errorf("%s on %s: %w", op, key, err)
	}
	if !v.Bool() {
		return dom.ErrUnknownNode
	}
	return nil
}

// receive handles a binding call from the page.
func (d *Document) receive(j gson.JSON) {
	raw, err := j.MarshalJSON()
	if err != nil {
		d.logger.Warn(d.ctx, "bad page notification", logger.Error(err))
		return
	}
	var n notification
	if err := json.Unmarshal(raw, &n); err != nil {
		d.logger.Warn(d.ctx, "bad page notification", logger.Error(err))
		return
	}
	d.deliver(d.ctx, n)
}

// deliver mirrors the reported state into the snapshot and runs the
// listeners attached to the reporting element. The page bubbles events
// itself, so ancestors report on their own.
func (d *Document) deliver(ctx context.Context, n notification) {
	d.mu.RLock()
	snap := d.snap
	var fns []dom.Listener
	for _, l := range d.listeners[n.Key] {
		if l.ev == dom.Event(n.Event) {
			fns = append(fns, l.fn)
		}
	}
	d.mu.RUnlock()

	snap.Restore(n.Key, n.Value, n.Checked, n.Selected)
	for _, p := range n.Peers {
		snap.Restore(p.Key, "", p.Checked, -1)
	}
	node, ok := snap.Node(n.Key)
	if !ok {
		return
	}
	for _, fn := range fns {
		fn(ctx, node, dom.Event(n.Event))
	}
}
