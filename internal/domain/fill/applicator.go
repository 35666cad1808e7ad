// Package fill writes resolved values into document controls and emits the
// notifications host pages listen for.
package fill

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/formfill/internal/domain/dom"
	"github.com/okian/formfill/internal/domain/label"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/question"
	"github.com/okian/formfill/internal/domain/scan"
	"github.com/okian/formfill/pkg/logger"
	"golang.org/x/net/html"
)

// Applicator writes values into a document.
type Applicator struct {
	doc    dom.Document
	labels *label.Resolver
	logger logger.Logger
}

// Option configures an Applicator.
type Option func(*Applicator)

// WithLogger sets the applicator logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Applicator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an Applicator for doc.
func New(doc dom.Document, opts ...Option) *Applicator {
	a := &Applicator{doc: doc, labels: label.New(doc.Root()), logger: logger.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply writes value into c. It returns OutcomeApplied or OutcomeUnmatched;
// document errors are returned with OutcomeFailed.
func (a *Applicator) Apply(ctx context.Context, c scan.Control, value string) (model.Outcome, error) {
	if len(c.Elements) == 0 {
		return model.OutcomeFailed, ErrNoElements
	}

	var (
		target *html.Node
		err    error
	)
	switch c.Kind {
	case model.KindText, model.KindTextarea:
		target = c.Elements[0]
		err = a.doc.SetValue(ctx, target, value)
	case model.KindSelect:
		target = c.Elements[0]
		idx := MatchOption(dom.Options(target), value)
		if idx < 0 {
			return model.OutcomeUnmatched, nil
		}
		err = a.doc.Select(ctx, target, idx)
	case model.KindRadioGroup:
		target = a.matchMember(c.Elements, value, a.labels.ChoiceLabel)
		if target == nil {
			return model.OutcomeUnmatched, nil
		}
		err = a.doc.SetChecked(ctx, target, true)
	case model.KindCheckbox:
		targets := a.matchMembers(c.Elements, value)
		if len(targets) == 0 {
			return model.OutcomeUnmatched, nil
		}
		for _, t := range targets {
			if err := a.doc.SetChecked(ctx, t, true); err != nil {
				return model.OutcomeFailed, fmt.Errorf("write %s control %d: %w", c.Kind, c.ID, err)
			}
			if err := a.notify(ctx, t); err != nil {
				return model.OutcomeFailed, err
			}
		}
		a.logger.Debug(ctx, "control filled", logger.Int("control", c.ID), logger.Int("checked", len(targets)))
		return model.OutcomeApplied, nil
	case model.KindButtonGroup:
		target = a.matchMember(c.Elements, value, dom.Text)
		if target == nil {
			return model.OutcomeUnmatched, nil
		}
		// the click is the activation and the notification
		if err := a.doc.Click(ctx, target); err != nil {
			return model.OutcomeFailed, fmt.Errorf("click %q: %w", value, err)
		}
		return model.OutcomeApplied, nil
	default:
		return model.OutcomeFailed, fmt.Errorf("%s: %w", c.Kind, ErrUnsupportedKind)
	}
	if err != nil {
		return model.OutcomeFailed, fmt.Errorf("write %s control %d: %w", c.Kind, c.ID, err)
	}

	if err := a.notify(ctx, target); err != nil {
		return model.OutcomeFailed, err
	}
	a.logger.Debug(ctx, "control filled", logger.Int("control", c.ID), logger.String("kind", string(c.Kind)))
	return model.OutcomeApplied, nil
}

// notify emits input then change on target.
func (a *Applicator) notify(ctx context.Context, target *html.Node) error {
	for _, ev := range []dom.Event{dom.EventInput, dom.EventChange} {
		if err := a.doc.Dispatch(ctx, target, ev); err != nil {
			return fmt.Errorf("dispatch %s: %w", ev, err)
		}
	}
	return nil
}

// matchMembers resolves a checkbox answer. A value naming one member checks
// that member; otherwise the value is a comma-separated list of labels, as
// Answer records several checked boxes, and every listed member is checked.
func (a *Applicator) matchMembers(members []*html.Node, value string) []*html.Node {
	if m := a.matchMember(members, value, a.labels.ChoiceLabel); m != nil {
		return []*html.Node{m}
	}
	var out []*html.Node
	seen := make(map[*html.Node]bool)
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if m := a.matchMember(members, part, a.labels.ChoiceLabel); m != nil && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func (a *Applicator) matchMember(members []*html.Node, value string, text func(*html.Node) string) *html.Node {
	want := question.Fold(strings.TrimSpace(value))
	for _, m := range members {
		if question.Fold(text(m)) == want {
			return m
		}
	}
	return nil
}

// MatchOption returns the index of the option matching value: exact text or
// value first, then the first option whose text contains value or is
// contained in it. Matching ignores case. Returns -1 when nothing matches.
func MatchOption(opts []*html.Node, value string) int {
	want := question.Fold(strings.TrimSpace(value))
	if want == "" {
		return -1
	}
	for i, o := range opts {
		if question.Fold(dom.OptionText(o)) == want || question.Fold(strings.TrimSpace(dom.OptionValue(o))) == want {
			return i
		}
	}
	for i, o := range opts {
		text := question.Fold(dom.OptionText(o))
		if text == "" {
			continue
		}
		if strings.Contains(want, text) || strings.Contains(text, want) {
			return i
		}
	}
	return -1
}
