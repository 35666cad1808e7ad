// Package htmldoc is an in-memory dom.Document parsed from HTML. It keeps
// control state (values, checkedness, selection) beside the tree, records
// every notification it delivers and runs attached listeners synchronously.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/formfill/internal/domain/dom"
	"golang.org/x/net/html"
)

// Attributes a live page snapshot uses to carry state that HTML cannot express.
const (
	AttrKey      = "data-formfill-key"
	AttrValue    = "data-formfill-value"
	AttrChecked  = "data-formfill-checked"
	AttrSelected = "data-formfill-selected"
	AttrVisible  = "data-formfill-visible"
)

// Notification is a delivered event, recorded in order.
type Notification struct {
	Key   string
	Event dom.Event
}

type listener struct {
	ev dom.Event
	fn dom.Listener
}

// Document implements dom.Document over a parsed tree.
type Document struct {
	mu sync.Mutex

	root *html.Node
	page dom.Page

	keys  map[*html.Node]string
	byKey map[string]*html.Node

	values   map[*html.Node]string
	checked  map[*html.Node]bool
	selected map[*html.Node]int

	listeners     map[*html.Node][]listener
	notifications []Notification
	writes        int
}

// Option configures a Document.
type Option func(*Document)

// WithPage sets page metadata. The host is derived from the URL when empty.
func WithPage(p dom.Page) Option {
	return func(d *Document) {
		if p.Host == "" && p.URL != "" {
			if u, err := url.Parse(p.URL); err == nil {
				p.Host = u.Hostname()
			}
		}
		d.page = p
	}
}

// Parse reads HTML and builds a Document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := &Document{
		root:      root,
		keys:      make(map[*html.Node]string),
		byKey:     make(map[string]*html.Node),
		values:    make(map[*html.Node]string),
		checked:   make(map[*html.Node]bool),
		selected:  make(map[*html.Node]int),
		listeners: make(map[*html.Node][]listener),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.page.Title == "" {
		if t := dom.Find(root, dom.Tag("title")); t != nil {
			d.page.Title = dom.Text(t)
		}
	}
	d.index()
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// index assigns keys and seeds control state from attributes.
func (d *Document) index() {
	seq := 0
	dom.Walk(d.root, func(n *html.Node) bool {
		key := dom.Attr(n, AttrKey)
		if key == "" {
			key = "n" + strconv.Itoa(seq)
		}
		seq++
		d.keys[n] = key
		d.byKey[key] = n

		switch n.Data {
		case "input":
			switch dom.InputType(n) {
			case "radio", "checkbox":
				if v, ok := dom.LookupAttr(n, AttrChecked); ok {
					d.checked[n] = v == "true"
				} else {
					d.checked[n] = dom.HasAttr(n, "checked")
				}
			default:
				if v, ok := dom.LookupAttr(n, AttrValue); ok {
					d.values[n] = v
				} else {
					d.values[n] = dom.Attr(n, "value")
				}
			}
		case "textarea":
			if v, ok := dom.LookupAttr(n, AttrValue); ok {
				d.values[n] = v
			} else {
				d.values[n] = textareaText(n)
			}
		case "select":
			d.selected[n] = initialSelection(n)
		}
		return true
	})
}

func textareaText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimPrefix(b.String(), "\n")
}

func initialSelection(sel *html.Node) int {
	opts := dom.Options(sel)
	if v, ok := dom.LookupAttr(sel, AttrSelected); ok {
		if i, err := strconv.Atoi(v); err == nil && i < len(opts) {
			return i
		}
	}
	for i, o := range opts {
		if dom.HasAttr(o, "selected") {
			return i
		}
	}
	if len(opts) == 0 {
		return -1
	}
	return 0
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Page returns page metadata.
func (d *Document) Page() dom.Page { return d.page }

// Key returns the element's identity.
func (d *Document) Key(n *html.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys[n]
}

// Node returns the element for a key.
func (d *Document) Node(key string) (*html.Node, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.byKey[key]
	return n, ok
}

// Visible reports whether neither the element nor an ancestor is hidden.
func (d *Document) Visible(n *html.Node) bool {
	if dom.IsElement(n, "input") && dom.InputType(n) == "hidden" {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if dom.Attr(cur, AttrVisible) == "false" || dom.StyleHidden(cur) {
			return false
		}
		if cur.Data == "template" || cur.Data == "head" {
			return false
		}
	}
	return true
}

// Value returns the current text value.
func (d *Document) Value(n *html.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[n]
}

// SetValue replaces the text value of an input or textarea.
func (d *Document) SetValue(_ context.Context, n *html.Node, value string) error {
	if !dom.IsElement(n, "input", "textarea") {
		return fmt.Errorf("set value on <%s>: %w", n.Data, dom.ErrNotControl)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[n]; !ok {
		return dom.ErrUnknownNode
	}
	d.values[n] = value
	d.writes++
	return nil
}

// Checked returns checkedness.
func (d *Document) Checked(n *html.Node) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checked[n]
}

// SetChecked sets checkedness; checking a radio unchecks the rest of its group.
func (d *Document) SetChecked(_ context.Context, n *html.Node, checked bool) error {
	if !dom.IsElement(n, "input") {
		return fmt.Errorf("check <%s>: %w", n.Data, dom.ErrNotControl)
	}
	typ := dom.InputType(n)
	if typ != "radio" && typ != "checkbox" {
		return fmt.Errorf("check input type %q: %w", typ, dom.ErrNotControl)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[n]; !ok {
		return dom.ErrUnknownNode
	}
	if typ == "radio" && checked {
		if name := dom.Attr(n, "name"); name != "" {
			for other := range d.checked {
				if other != n && dom.InputType(other) == "radio" && dom.Attr(other, "name") == name {
					d.checked[other] = false
				}
			}
		}
	}
	d.checked[n] = checked
	d.writes++
	return nil
}

// SelectedIndex returns the selected option index.
func (d *Document) SelectedIndex(n *html.Node) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i, ok := d.selected[n]; ok {
		return i
	}
	return -1
}

// Select selects the option at index.
func (d *Document) Select(_ context.Context, n *html.Node, index int) error {
	if !dom.IsElement(n, "select") {
		return fmt.Errorf("select on <%s>: %w", n.Data, dom.ErrNotControl)
	}
	if index < 0 || index >= len(dom.Options(n)) {
		return fmt.Errorf("select %d: %w", index, dom.ErrIndexRange)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected[n] = index
	d.writes++
	return nil
}

// Click delivers a click. Clicking a checkbox or radio toggles it as a browser would.
func (d *Document) Click(ctx context.Context, n *html.Node) error {
	if dom.IsElement(n, "input") {
		switch dom.InputType(n) {
		case "radio":
			if err := d.SetChecked(ctx, n, true); err != nil {
				return err
			}
		case "checkbox":
			if err := d.SetChecked(ctx, n, !d.Checked(n)); err != nil {
				return err
			}
		}
	}
	return d.Dispatch(ctx, n, dom.EventClick)
}

// Dispatch records the notification and runs listeners on n and its ancestors.
func (d *Document) Dispatch(ctx context.Context, n *html.Node, ev dom.Event) error {
	d.mu.Lock()
	key, ok := d.keys[n]
	if !ok {
		d.mu.Unlock()
		return dom.ErrUnknownNode
	}
	d.notifications = append(d.notifications, Notification{Key: key, Event: ev})
	var fns []dom.Listener
	for cur := n; cur != nil; cur = cur.Parent {
		for _, l := range d.listeners[cur] {
			if l.ev == ev {
				fns = append(fns, l.fn)
			}
		}
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, n, ev)
	}
	return nil
}

// Listen attaches a listener.
func (d *Document) Listen(n *html.Node, ev dom.Event, fn dom.Listener) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[n]; !ok {
		return dom.ErrUnknownNode
	}
	d.listeners[n] = append(d.listeners[n], listener{ev: ev, fn: fn})
	return nil
}

// ListenerCount returns how many listeners are attached to n.
func (d *Document) ListenerCount(n *html.Node) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[n])
}

// Notifications returns the delivered notifications in order.
func (d *Document) Notifications() []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Notification, len(d.notifications))
	copy(out, d.notifications)
	return out
}

// Writes returns the number of state mutations applied.
func (d *Document) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// Restore applies state read from a live page to the element for key,
// without counting it as a write. Unknown keys are ignored.
func (d *Document) Restore(key string, value string, checked bool, selected int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.byKey[key]
	if !ok {
		return
	}
	switch n.Data {
	case "input":
		switch dom.InputType(n) {
		case "radio", "checkbox":
			d.checked[n] = checked
		default:
			d.values[n] = value
		}
	case "textarea":
		d.values[n] = value
	case "select":
		d.selected[n] = selected
	}
}
