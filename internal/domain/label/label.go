// Package label derives the question text a human would read for a control.
package label

import (
	"strings"

	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/question"
	"golang.org/x/net/html"
)

// fieldContainer matches the wrappers application forms put around one question.
var fieldContainer = dom.AnyOf(
	dom.Class("ashby-application-form-field-entry"),
	dom.AttrIs("role", "group"),
	dom.AttrIs("role", "radiogroup"),
	dom.Class("form-group"),
	dom.Class("question"),
	dom.Class("field"),
)

var headingLike = dom.AnyOf(
	dom.Tag("label", "legend", "h1", "h2", "h3", "h4", "h5", "h6"),
	dom.Class("question-title"),
	dom.ClassContains("question-title"),
)

// FieldContainer returns the closest question wrapper around n, or nil.
func FieldContainer(n *html.Node) *html.Node {
	return dom.Closest(n, fieldContainer)
}

// Resolver derives question text. It only reads the tree.
type Resolver struct {
	root *html.Node
}

// New returns a Resolver over the document rooted at root.
func New(root *html.Node) *Resolver {
	return &Resolver{root: root}
}

// Question returns the question for a single-element control, trying in
// order: label[for], wrapping label, accessibility label or placeholder,
// fieldset legend, nearby heading, then name and id.
func (r *Resolver) Question(n *html.Node) string {
	return r.resolve(n, []*html.Node{n})
}

// GroupQuestion returns the question for a group whose members are the given
// elements. Steps run against the anchor (the group container) so member
// option labels never become the question; name and id come from the first member.
func (r *Resolver) GroupQuestion(anchor *html.Node, members []*html.Node) string {
	if anchor == nil && len(members) > 0 {
		anchor = members[0]
	}
	q := r.resolveSteps(anchor, members, anchor != nil && len(members) > 0 && anchor == members[0])
	if q != "" {
		return q
	}
	if len(members) > 0 {
		return identity(members[0])
	}
	return ""
}

func (r *Resolver) resolve(n *html.Node, members []*html.Node) string {
	if q := r.resolveSteps(n, members, true); q != "" {
		return q
	}
	return identity(n)
}

func (r *Resolver) resolveSteps(n *html.Node, members []*html.Node, own bool) string {
	steps := []func() string{
		func() string {
			if !own {
				return ""
			}
			return r.forLabel(n)
		},
		func() string {
			if !own {
				return ""
			}
			return wrappingLabel(n)
		},
		func() string { return r.accessible(n) },
		func() string { return legend(n) },
		func() string { return r.heading(n, members) },
	}
	for _, step := range steps {
		if q := question.Collapse(step()); q != "" {
			return q
		}
	}
	return ""
}

// forLabel is step 1.
func (r *Resolver) forLabel(n *html.Node) string {
	id := dom.Attr(n, "id")
	if id == "" {
		return ""
	}
	l := dom.Find(r.root, func(c *html.Node) bool {
		return dom.IsElement(c, "label") && dom.Attr(c, "for") == id
	})
	return dom.Text(l)
}

// wrappingLabel is step 2.
func wrappingLabel(n *html.Node) string {
	l := dom.Closest(dom.ParentElement(n), dom.Tag("label"))
	if l == nil {
		return ""
	}
	return dom.TextExcluding(l, n)
}

// accessible is step 3.
func (r *Resolver) accessible(n *html.Node) string {
	if v := strings.TrimSpace(dom.Attr(n, "aria-label")); v != "" {
		return v
	}
	if ids := strings.Fields(dom.Attr(n, "aria-labelledby")); len(ids) > 0 {
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			if t := dom.Text(dom.ByID(r.root, id)); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return dom.Attr(n, "placeholder")
}

// legend is step 4.
func legend(n *html.Node) string {
	fs := dom.Closest(n, dom.Tag("fieldset"))
	if fs == nil {
		return ""
	}
	for c := fs.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c, "legend") {
			return dom.Text(c)
		}
	}
	return dom.Text(dom.Find(fs, dom.Tag("legend")))
}

// heading is step 5: a label-like element in the closest field container that
// does not belong to one of the members, else a heading or label child of the
// parent.
func (r *Resolver) heading(n *html.Node, members []*html.Node) string {
	owned := func(c *html.Node) bool {
		for _, m := range members {
			if dom.Contains(c, m) {
				return true
			}
			if id := dom.Attr(m, "id"); id != "" && dom.IsElement(c, "label") && dom.Attr(c, "for") == id {
				return true
			}
		}
		return false
	}
	candidate := func(c *html.Node) bool { return headingLike(c) && !owned(c) }

	if container := FieldContainer(n); container != nil {
		if h := dom.Find(container, candidate); h != nil {
			return dom.Text(h)
		}
	}
	if parent := dom.ParentElement(n); parent != nil {
		for c := parent.FirstChild; c != nil; c = c.NextSibling {
			if candidate(c) {
				return dom.Text(c)
			}
		}
	}
	return ""
}

// identity is step 6.
func identity(n *html.Node) string {
	if v := strings.TrimSpace(dom.Attr(n, "name")); v != "" {
		return v
	}
	return strings.TrimSpace(dom.Attr(n, "id"))
}

// ChoiceLabel returns the label a user reads for one member of a radio or
// checkbox group: label[for], wrapping label, aria-label, then value.
func (r *Resolver) ChoiceLabel(member *html.Node) string {
	if t := question.Collapse(r.forLabel(member)); t != "" {
		return t
	}
	if t := question.Collapse(wrappingLabel(member)); t != "" {
		return t
	}
	if t := strings.TrimSpace(dom.Attr(member, "aria-label")); t != "" {
		return t
	}
	return strings.TrimSpace(dom.Attr(member, "value"))
}
