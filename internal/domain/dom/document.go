// Package dom describes the capability set the autofill pipeline needs from
// a live document, over an x/net/html element tree.
package dom

import (
	"context"

	"golang.org/x/net/html"
)

// Event is a native notification name.
type Event string

// Notifications emitted after mutations and observed for user interaction.
const (
	EventInput  Event = "input"
	EventChange Event = "change"
	EventClick  Event = "click"
)

// Listener is invoked when an event reaches an element it was attached to.
type Listener func(ctx context.Context, target *html.Node, ev Event)

// Page describes where the document lives.
type Page struct {
	URL   string
	Title string
	Host  string
}

// Document is a mutable element tree. Reads reflect the latest known state;
// writes mutate the underlying page.
type Document interface {
	// Root returns the document node.
	Root() *html.Node

	// Key returns a stable identity for an element, valid for the page lifetime.
	Key(n *html.Node) string

	// Visible reports whether the element is rendered.
	Visible(n *html.Node) bool

	// Value returns the current value of an input or textarea.
	Value(n *html.Node) string
	SetValue(ctx context.Context, n *html.Node, value string) error

	// Checked returns the checkedness of a radio or checkbox input.
	Checked(n *html.Node) bool
	SetChecked(ctx context.Context, n *html.Node, checked bool) error

	// SelectedIndex returns the selected option index of a select, or -1.
	SelectedIndex(n *html.Node) int
	Select(ctx context.Context, n *html.Node, index int) error

	// Click activates an element and delivers the click notification.
	Click(ctx context.Context, n *html.Node) error

	// Dispatch delivers a notification to the element and its ancestors.
	Dispatch(ctx context.Context, n *html.Node, ev Event) error

	// Listen attaches fn to the element for ev.
	Listen(n *html.Node, ev Event, fn Listener) error

	// Page returns page metadata.
	Page() Page
}

// Refresher is implemented by documents backed by a remote page whose tree
// must be re-read before a pass.
type Refresher interface {
	Refresh(ctx context.Context) error
}
