// Package model contains domain models passed between layers.
package model

import "strings"

// Kind is the logical kind of a form control.
type Kind string

// Control kinds.
const (
	KindText        Kind = "text"
	KindTextarea    Kind = "textarea"
	KindSelect      Kind = "select"
	KindRadioGroup  Kind = "radio-group"
	KindCheckbox    Kind = "checkbox"
	KindButtonGroup Kind = "button-group"
)

// FreeText reports whether the kind accepts arbitrary typed text.
func (k Kind) FreeText() bool {
	return k == KindText || k == KindTextarea
}

// ClosedChoice reports whether the kind offers a fixed set of choices.
func (k Kind) ClosedChoice() bool {
	switch k {
	case KindSelect, KindRadioGroup, KindCheckbox, KindButtonGroup:
		return true
	}
	return false
}

// Intent is a canonical semantic tag for a question. The empty Intent means none.
type Intent string

// IntentNone is the result when no classification rule matches.
const IntentNone Intent = ""

// String renders the tag, using "none" for the empty intent.
func (i Intent) String() string {
	if i == IntentNone {
		return "none"
	}
	return string(i)
}

// FormControl is one logical control discovered on a page. Radio/checkbox
// groups and button groups collapse into a single control.
type FormControl struct {
	ID           int      `json:"id"`
	Kind         Kind     `json:"kind"`
	Question     string   `json:"question"`
	Choices      []string `json:"choices,omitempty"`
	CurrentValue string   `json:"current_value,omitempty"`
	Required     bool     `json:"required,omitempty"`
}

// Prefilled reports whether a free-text control already holds a value and
// must not be overwritten.
func (c *FormControl) Prefilled() bool {
	return c.Kind.FreeText() && strings.TrimSpace(c.CurrentValue) != ""
}

// OpenEnded reports whether the control expects prose: a textarea, or a text
// input whose question has no structural intent.
func (c *FormControl) OpenEnded(intent Intent) bool {
	switch c.Kind {
	case KindTextarea:
		return true
	case KindText:
		return intent == IntentNone
	}
	return false
}
