// Package intent classifies question text into canonical intent tags with an
// ordered rule table. The first matching rule wins, so specific rules come
// before generic ones.
package intent

import (
	"strings"

	"github.com/okian/formfill/internal/domain/model"
)

// Intent tags of the default vocabulary.
const (
	LegalFirstName     model.Intent = "legal-first-name"
	LegalLastName      model.Intent = "legal-last-name"
	FirstName          model.Intent = "first-name"
	LastName           model.Intent = "last-name"
	PreferredName      model.Intent = "preferred-name"
	FullName           model.Intent = "full-name"
	Name               model.Intent = "name"
	Email              model.Intent = "email"
	Phone              model.Intent = "phone"
	LinkedIn           model.Intent = "linkedin"
	GitHub             model.Intent = "github"
	Portfolio          model.Intent = "portfolio"
	ReferralSource     model.Intent = "referral-source"
	Website            model.Intent = "website"
	Authorization      model.Intent = "authorization"
	Visa               model.Intent = "visa"
	LocationPreference model.Intent = "location-preference"
	City               model.Intent = "city"
	Location           model.Intent = "location"
	YearsOfExperience  model.Intent = "years-of-experience"
	Education          model.Intent = "education"
	Experience         model.Intent = "experience"
	Skills             model.Intent = "skills"
)

// Rule maps question text to a tag. It matches when any AnyOf phrase occurs
// in the case-folded text and no NoneOf phrase does.
type Rule struct {
	Tag    model.Intent `yaml:"tag"`
	AnyOf  []string     `yaml:"any_of"`
	NoneOf []string     `yaml:"none_of,omitempty"`
}

// Matches tests folded (already case-folded) question text.
func (r Rule) Matches(folded string) bool {
	hit := false
	for _, p := range r.AnyOf {
		if p != "" && strings.Contains(folded, p) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	for _, p := range r.NoneOf {
		if p != "" && strings.Contains(folded, p) {
			return false
		}
	}
	return true
}

// DefaultRules returns a fresh copy of the built-in table.
func DefaultRules() []Rule {
	return []Rule{
		{Tag: LegalFirstName, AnyOf: []string{"legal first name", "legal first"}},
		{Tag: LegalLastName, AnyOf: []string{"legal last name", "legal last"}},
		{Tag: FirstName, AnyOf: []string{"first name", "given name", "forename"}},
		{Tag: LastName, AnyOf: []string{"last name", "surname", "family name"}},
		{Tag: PreferredName, AnyOf: []string{"preferred name"}},
		{Tag: FullName, AnyOf: []string{"full name", "your name", "complete name"}},
		{Tag: Name, AnyOf: []string{"name"}, NoneOf: []string{"user", "file", "company"}},
		{Tag: Email, AnyOf: []string{"email", "e-mail"}},
		{Tag: Phone, AnyOf: []string{"phone", "mobile number", "telephone"}},
		{Tag: LinkedIn, AnyOf: []string{"linkedin"}},
		{Tag: GitHub, AnyOf: []string{"github", "git hub"}},
		{Tag: Portfolio, AnyOf: []string{"portfolio"}},
		{Tag: ReferralSource, AnyOf: []string{"how did you hear", "hear about us", "referral", "referred by", "source"}, NoneOf: []string{"open source", "resource"}},
		{Tag: Website, AnyOf: []string{"website", "url", "personal site"}},
		{Tag: Authorization, AnyOf: []string{"work authorization", "authorized", "citizen", "eligible to work", "right to work"}},
		{Tag: Visa, AnyOf: []string{"visa", "sponsor"}},
		{Tag: LocationPreference, AnyOf: []string{"relocat", "remote", "hybrid", "on-site", "onsite"}},
		{Tag: City, AnyOf: []string{"city"}, NoneOf: []string{"ethnicity", "electricity", "capacity"}},
		{Tag: Location, AnyOf: []string{"address", "location"}},
		{Tag: YearsOfExperience, AnyOf: []string{"years of experience"}},
		{Tag: Education, AnyOf: []string{"education", "degree", "university"}},
		{Tag: Experience, AnyOf: []string{"experience"}},
		{Tag: Skills, AnyOf: []string{"skill"}},
	}
}
