// Package question normalises question text into answer store keys.
package question

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Normalize case-folds text, replaces every rune that is not a letter or a
// digit with a space and collapses whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	folded := Fold(text)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Fold lowercases text for substring matching without dropping punctuation.
// A Caser is stateful, so each call builds its own.
func Fold(text string) string {
	return cases.Fold().String(text)
}

// Collapse trims text and squeezes inner whitespace runs to one space.
func Collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// openEndedMarkers flag prose questions whose answers are not worth replaying.
var openEndedMarkers = []string{"why", "describe", "tell us", "motivation", "cover letter", "essay"}

// IsOpenEnded reports whether the question asks for prose.
func IsOpenEnded(text string) bool {
	folded := Fold(text)
	for _, m := range openEndedMarkers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}
