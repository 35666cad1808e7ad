// Package scan enumerates the logical form controls of a document.
package scan

import (
	"context"
	"strings"

	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/label"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/question"
	"github.com/okian/formfill/pkg/logger"
	"github.com/okian/formfill/pkg/metrics"
	"golang.org/x/net/html"
)

// Input types that never carry an answer.
var nonDataInputs = map[string]bool{
	"file": true, "submit": true, "reset": true, "hidden": true,
	"image": true, "button": true, "password": true,
}

// Control is a discovered control plus the elements it stands for. Elements
// are in document order; for groups they are the members.
type Control struct {
	model.FormControl
	Elements  []*html.Node
	Container *html.Node
}

// Scanner walks a document and groups its controls.
type Scanner struct {
	logger logger.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the scanner logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type group struct {
	kind    model.Kind
	members []*html.Node
	anchor  *html.Node
}

// Scan returns the document's logical controls in order of first occurrence.
// IDs are the positions in the returned slice.
func (s *Scanner) Scan(ctx context.Context, doc dom.Document) []Control {
	root := doc.Root()
	labels := label.New(root)

	var groups []*group
	byName := make(map[string]*group)
	byContainer := make(map[*html.Node]*group)

	dom.Walk(root, func(n *html.Node) bool {
		if !dom.IsElement(n, "input", "textarea", "select", "button") {
			return true
		}
		if dom.Disabled(n) || !doc.Visible(n) {
			return false
		}
		switch n.Data {
		case "textarea":
			groups = append(groups, &group{kind: model.KindTextarea, members: []*html.Node{n}})
		case "select":
			groups = append(groups, &group{kind: model.KindSelect, members: []*html.Node{n}})
		case "button":
			if !choiceButton(n) {
				return false
			}
			container := buttonContainer(n)
			if g, ok := byContainer[container]; ok {
				g.members = append(g.members, n)
				return false
			}
			g := &group{kind: model.KindButtonGroup, members: []*html.Node{n}, anchor: container}
			byContainer[container] = g
			groups = append(groups, g)
			return false
		case "input":
			typ := dom.InputType(n)
			if nonDataInputs[typ] {
				return true
			}
			if typ != "radio" && typ != "checkbox" {
				groups = append(groups, &group{kind: model.KindText, members: []*html.Node{n}})
				return true
			}
			kind := model.KindRadioGroup
			if typ == "checkbox" {
				kind = model.KindCheckbox
			}
			name := dom.Attr(n, "name")
			if name != "" {
				key := typ + "\x00" + name
				if g, ok := byName[key]; ok {
					g.members = append(g.members, n)
					return true
				}
				g := &group{kind: kind, members: []*html.Node{n}}
				byName[key] = g
				groups = append(groups, g)
				return true
			}
			groups = append(groups, &group{kind: kind, members: []*html.Node{n}})
		}
		return true
	})

	out := make([]Control, 0, len(groups))
	for _, g := range groups {
		c, ok := s.build(doc, labels, g)
		if !ok {
			continue
		}
		c.ID = len(out)
		out = append(out, c)
	}

	metrics.RecordControlsScanned(len(out))
	s.logger.Debug(ctx, "document scanned", logger.Int("controls", len(out)), logger.String("url", doc.Page().URL))
	return out
}

func (s *Scanner) build(doc dom.Document, labels *label.Resolver, g *group) (Control, bool) {
	c := Control{Elements: g.members}
	c.Kind = g.kind
	first := g.members[0]

	switch g.kind {
	case model.KindText, model.KindTextarea:
		c.Question = labels.Question(first)
		c.CurrentValue = doc.Value(first)
		c.Container = label.FieldContainer(first)
	case model.KindSelect:
		c.Question = labels.Question(first)
		opts := dom.Options(first)
		for _, o := range opts {
			c.Choices = append(c.Choices, dom.OptionText(o))
		}
		if i := doc.SelectedIndex(first); i >= 0 && i < len(opts) {
			c.CurrentValue = SelectedAnswer(opts[i])
		}
		c.Container = label.FieldContainer(first)
	case model.KindRadioGroup, model.KindCheckbox:
		c.Container = groupAnchor(g.members)
		if len(g.members) == 1 && label.FieldContainer(first) == nil {
			c.Container = first
		}
		c.Question = labels.GroupQuestion(c.Container, g.members)
		var checked []string
		for _, m := range g.members {
			l := labels.ChoiceLabel(m)
			c.Choices = append(c.Choices, l)
			if doc.Checked(m) {
				checked = append(checked, l)
			}
		}
		c.CurrentValue = strings.Join(checked, ", ")
	case model.KindButtonGroup:
		c.Container = g.anchor
		c.Question = labels.GroupQuestion(g.anchor, g.members)
		for _, b := range g.members {
			c.Choices = append(c.Choices, dom.Text(b))
		}
		if sel := SelectedButton(g.anchor, g.members, nil); sel != nil {
			c.CurrentValue = dom.Text(sel)
		}
		if c.Question == "" {
			return c, false
		}
	}

	for _, m := range g.members {
		if dom.HasAttr(m, "required") || dom.Attr(m, "aria-required") == "true" {
			c.Required = true
		}
	}
	return c, true
}

// Leading words of prompt options such as "Select one" or "-- Choose --".
var placeholderPrefixes = []string{"select", "choose", "please select", "please choose", "pick one", "pick an"}

// SelectedAnswer returns the answer an option represents, or "" for
// placeholder options.
func SelectedAnswer(opt *html.Node) string {
	if Placeholder(opt) {
		return ""
	}
	return dom.OptionText(opt)
}

// Placeholder reports whether opt is a prompt rather than a choice: an empty
// value, a disabled option, or a value-less option worded like a prompt.
func Placeholder(opt *html.Node) bool {
	v, hasValue := dom.LookupAttr(opt, "value")
	if hasValue && strings.TrimSpace(v) == "" {
		return true
	}
	if dom.HasAttr(opt, "disabled") {
		return true
	}
	if hasValue {
		return false
	}
	text := strings.Trim(question.Fold(dom.OptionText(opt)), " -_.*…")
	if text == "" {
		return true
	}
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// choiceButton reports whether a button picks an answer rather than submitting.
func choiceButton(n *html.Node) bool {
	switch dom.ButtonType(n) {
	case "submit", "reset":
		return false
	}
	return dom.Text(n) != ""
}

// buttonContainer picks the element grouping choice buttons of one question.
func buttonContainer(n *html.Node) *html.Node {
	for _, m := range []dom.Matcher{
		dom.Class("ashby-application-form-field-entry"),
		dom.AnyOf(dom.AttrIs("role", "group"), dom.AttrIs("role", "radiogroup")),
		dom.AnyOf(dom.Class("form-group"), dom.Class("question"), dom.Class("field")),
	} {
		if c := dom.Closest(n, m); c != nil {
			return c
		}
	}
	return dom.ParentElement(n)
}

// groupAnchor is the field container around a radio/checkbox group, or the
// deepest element holding all members.
func groupAnchor(members []*html.Node) *html.Node {
	if c := label.FieldContainer(members[0]); c != nil {
		return c
	}
	if len(members) > 1 {
		return dom.LowestCommonAncestor(members)
	}
	return dom.ParentElement(members[0])
}

var selectedClasses = []string{"active", "selected", "is-selected", "chosen", "checked"}

// SelectedButton finds the selected member of a button group: by class, by
// aria-pressed, by data attributes, by a pressed element in the container,
// then by the last clicked member if known.
func SelectedButton(container *html.Node, members []*html.Node, lastClicked *html.Node) *html.Node {
	for _, b := range members {
		for _, cls := range selectedClasses {
			if dom.HasClass(b, cls) {
				return b
			}
		}
	}
	for _, b := range members {
		if dom.Attr(b, "aria-pressed") == "true" {
			return b
		}
	}
	for _, b := range members {
		if dom.Attr(b, "data-selected") == "true" || dom.Attr(b, "data-state") == "selected" {
			return b
		}
	}
	if container != nil {
		pressed := dom.Find(container, dom.AnyOf(dom.AttrIs("aria-pressed", "true"), dom.AttrIs("data-state", "on")))
		if pressed != nil {
			for _, b := range members {
				if dom.Contains(b, pressed) || dom.Contains(pressed, b) {
					return b
				}
			}
		}
	}
	return lastClicked
}
