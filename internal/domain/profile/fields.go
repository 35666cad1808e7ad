// Package profile maps intents onto structured candidate data and builds
// profiles from plain-text résumés.
package profile

import (
	"strings"

	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/model"
)

// Field returns the profile value for an intent. ok is false when the intent
// has no profile field; value may still be empty when the field is unset.
func Field(p *model.Profile, tag model.Intent) (value string, ok bool) {
	if p == nil {
		return "", false
	}
	switch tag {
	case intent.LegalFirstName, intent.FirstName:
		first, _ := SplitName(p.FullName)
		return first, true
	case intent.LegalLastName, intent.LastName:
		_, last := SplitName(p.FullName)
		return last, true
	case intent.PreferredName, intent.FullName, intent.Name:
		return strings.TrimSpace(p.FullName), true
	case intent.Email:
		return strings.TrimSpace(p.Email), true
	case intent.Phone:
		return strings.TrimSpace(p.Phone), true
	case intent.City:
		return City(p.Location), true
	case intent.Location:
		return strings.TrimSpace(p.Location), true
	case intent.LinkedIn:
		return strings.TrimSpace(p.Links.LinkedIn), true
	case intent.GitHub:
		return strings.TrimSpace(p.Links.GitHub), true
	case intent.Portfolio:
		return firstNonEmpty(p.Links.Portfolio, p.Links.Website), true
	case intent.Website:
		return firstNonEmpty(p.Links.Website, p.Links.Portfolio), true
	case intent.Education:
		return strings.Join(p.Education, "; "), true
	case intent.Experience:
		return strings.Join(p.Experience, "; "), true
	case intent.Skills:
		return strings.Join(p.Skills, ", "), true
	}
	return "", false
}

// SplitName splits a full name on whitespace: the first token is the first
// name, the last token is the last name when there is more than one token.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[len(parts)-1]
}

// City returns the first comma-separated part of a location.
func City(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(city)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Summary renders a one-line profile digest for drafting prompts. It falls
// back to the free-text summary when no structured field is set.
func Summary(p *model.Profile) string {
	if p == nil {
		return ""
	}
	var parts []string
	if name := strings.TrimSpace(p.FullName); name != "" {
		parts = append(parts, name)
	}
	var contact []string
	for _, bit := range []string{p.Email, p.Phone} {
		if s := strings.TrimSpace(bit); s != "" {
			contact = append(contact, s)
		}
	}
	if len(contact) > 0 {
		parts = append(parts, strings.Join(contact, ", "))
	}
	if len(p.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(p.Skills, "; "))
	}
	if len(p.Education) > 0 {
		parts = append(parts, "Education: "+strings.Join(p.Education, "; "))
	}
	if len(p.Experience) > 0 {
		parts = append(parts, "Experience highlights: "+strings.Join(p.Experience, "; "))
	}
	if len(parts) == 0 {
		return p.Summary
	}
	return strings.Join(parts, " | ")
}
