package intent

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/question"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRules is returned for rule tables that cannot classify anything.
var ErrInvalidRules = errors.New("invalid intent rules")

// Classifier is an immutable ordered rule table.
type Classifier struct {
	rules []Rule
}

// New builds a classifier. A nil table means DefaultRules. Phrases are
// case-folded so rule authors need not care about case.
func New(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Tag: r.Tag, AnyOf: foldAll(r.AnyOf), NoneOf: foldAll(r.NoneOf)}
	}
	return &Classifier{rules: out}
}

func foldAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = question.Fold(s)
	}
	return out
}

// Classify returns the tag of the first matching rule, or model.IntentNone.
func (c *Classifier) Classify(text string) model.Intent {
	tag, _ := c.Explain(text)
	return tag
}

// Explain is Classify plus the index of the winning rule (-1 when none matched).
func (c *Classifier) Explain(text string) (model.Intent, int) {
	folded := question.Fold(text)
	if strings.TrimSpace(folded) == "" {
		return model.IntentNone, -1
	}
	for i, r := range c.rules {
		if r.Matches(folded) {
			return r.Tag, i
		}
	}
	return model.IntentNone, -1
}

// Rules returns a copy of the table in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules decodes a YAML rule table of the form:
//
//	rules:
//	  - tag: first-name
//	    any_of: [first name, given name]
//	    none_of: [legal]
func LoadRules(r io.Reader) ([]Rule, error) {
	var f rulesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules", ErrInvalidRules)
	}
	for i, rule := range f.Rules {
		if rule.Tag == model.IntentNone {
			return nil, fmt.Errorf("%w: rule %d has no tag", ErrInvalidRules, i)
		}
		if len(rule.AnyOf) == 0 {
			return nil, fmt.Errorf("%w: rule %d (%s) has no any_of phrases", ErrInvalidRules, i, rule.Tag)
		}
	}
	return f.Rules, nil
}

// LoadRulesFile reads LoadRules input from path.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}
