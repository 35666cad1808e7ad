package resolve

import (
	"strings"

	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/question"
)

// Preference is a set of words that must all appear in a choice.
type Preference []string

// DefaultPreferences returns the built-in preferred options per intent, most
// preferred first.
func DefaultPreferences() map[model.Intent][]Preference {
	return map[model.Intent][]Preference{
		intent.ReferralSource: {
			{"company", "website"},
			{"company", "site"},
			{"company", "careers"},
			{"careers"},
			{"website"},
		},
	}
}

// pick returns the choice matched by the earliest preference. Within one
// preference the first choice in order wins.
func pick(prefs []Preference, choices []string) (string, bool) {
	for _, pref := range prefs {
		for _, choice := range choices {
			if matchesAll(question.Fold(choice), pref) {
				return choice, true
			}
		}
	}
	return "", false
}

func matchesAll(folded string, words Preference) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(folded, w) {
			return false
		}
	}
	return true
}
