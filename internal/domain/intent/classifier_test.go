package intent

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/formfill/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given the default classifier", t, func() {
		c := New(nil)

		cases := []struct {
			text string
			want model.Intent
		}{
			{"Legal First Name", LegalFirstName},
			{"Legal last name *", LegalLastName},
			{"First Name", FirstName},
			{"Given name", FirstName},
			{"Last Name", LastName},
			{"Family name", LastName},
			{"Preferred Name", PreferredName},
			{"Full Name", FullName},
			{"What is your name?", FullName},
			{"Name", Name},
			{"Company name", model.IntentNone},
			{"Username", model.IntentNone},
			{"File name", model.IntentNone},
			{"Email Address", Email},
			{"E-mail", Email},
			{"Phone number", Phone},
			{"LinkedIn Profile URL", LinkedIn},
			{"GitHub URL", GitHub},
			{"Portfolio link", Portfolio},
			{"How did you hear about us?", ReferralSource},
			{"Were you referred by an employee? (referral)", ReferralSource},
			{"Open source contributions", model.IntentNone},
			{"Personal website", Website},
			{"Are you legally authorized to work in the United States?", Authorization},
			{"Are you a US citizen?", Authorization},
			{"Will you now or in the future require visa sponsorship?", Visa},
			{"Are you open to relocation?", LocationPreference},
			{"Do you prefer remote or hybrid?", LocationPreference},
			{"Current city", City},
			{"Ethnicity", model.IntentNone},
			{"Location", Location},
			{"Street address", Location},
			{"Years of experience with Go", YearsOfExperience},
			{"Highest degree obtained", Education},
			{"Describe your experience", Experience},
			{"Key skills", Skills},
			{"Why do you want to work here?", model.IntentNone},
			{"", model.IntentNone},
			{"   ", model.IntentNone},
		}

		Convey("Then each question gets the most specific tag", func() {
			for _, tc := range cases {
				So(c.Classify(tc.text), ShouldEqual, tc.want)
			}
		})

		Convey("Then classification is pure", func() {
			for _, tc := range cases {
				So(c.Classify(tc.text), ShouldEqual, c.Classify(tc.text))
			}
		})

		Convey("Then specific rules precede generic ones", func() {
			_, legal := c.Explain("Legal First Name")
			_, first := c.Explain("First Name")
			_, name := c.Explain("Name")
			So(legal, ShouldBeLessThan, first)
			So(first, ShouldBeLessThan, name)
		})

		Convey("Then unmatched text explains as -1", func() {
			tag, idx := c.Explain("Why us?")
			So(tag, ShouldEqual, model.IntentNone)
			So(idx, ShouldEqual, -1)
		})
	})
}

func TestRuleMatches(t *testing.T) {
	Convey("Given a single rule", t, func() {
		r := Rule{Tag: City, AnyOf: []string{"city"}, NoneOf: []string{"ethnicity"}}

		Convey("Then it is testable in isolation", func() {
			So(r.Matches("current city"), ShouldBeTrue)
			So(r.Matches("ethnicity"), ShouldBeFalse)
			So(r.Matches("country"), ShouldBeFalse)
		})

		Convey("Then empty phrases never match", func() {
			So(Rule{Tag: City, AnyOf: []string{""}}.Matches("anything"), ShouldBeFalse)
		})
	})
}

func TestCustomRules(t *testing.T) {
	Convey("Given a custom table with mixed-case phrases", t, func() {
		c := New([]Rule{{Tag: "pronouns", AnyOf: []string{"Pronouns"}}})

		Convey("Then phrases are folded before matching", func() {
			So(c.Classify("Your PRONOUNS"), ShouldEqual, model.Intent("pronouns"))
			So(c.Classify("First name"), ShouldEqual, model.IntentNone)
		})

		Convey("Then Rules returns the folded table", func() {
			want := []Rule{{Tag: "pronouns", AnyOf: []string{"pronouns"}}}
			So(cmp.Diff(want, c.Rules()), ShouldBeEmpty)
		})
	})
}

func TestLoadRules(t *testing.T) {
	Convey("Given YAML rule tables", t, func() {
		Convey("When the table is valid", func() {
			rules, err := LoadRules(strings.NewReader(`
rules:
  - tag: salary
    any_of: [salary, compensation]
  - tag: first-name
    any_of: [first name]
    none_of: [legal]
`))

			Convey("Then rules load in order", func() {
				So(err, ShouldBeNil)
				want := []Rule{
					{Tag: "salary", AnyOf: []string{"salary", "compensation"}},
					{Tag: FirstName, AnyOf: []string{"first name"}, NoneOf: []string{"legal"}},
				}
				So(cmp.Diff(want, rules), ShouldBeEmpty)
				So(New(rules).Classify("Legal first name"), ShouldEqual, model.IntentNone)
			})
		})

		Convey("When a rule has no tag", func() {
			_, err := LoadRules(strings.NewReader("rules:\n  - any_of: [x]\n"))
			So(errors.Is(err, ErrInvalidRules), ShouldBeTrue)
		})

		Convey("When a rule has no phrases", func() {
			_, err := LoadRules(strings.NewReader("rules:\n  - tag: x\n"))
			So(errors.Is(err, ErrInvalidRules), ShouldBeTrue)
		})

		Convey("When the document has unknown keys", func() {
			_, err := LoadRules(strings.NewReader("rulez: []\n"))
			So(errors.Is(err, ErrInvalidRules), ShouldBeTrue)
		})

		Convey("When loading from a file", func() {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			So(os.WriteFile(path, []byte("rules:\n  - tag: email\n    any_of: [mail]\n"), 0o600), ShouldBeNil)

			rules, err := LoadRulesFile(path)
			So(err, ShouldBeNil)
			So(rules, ShouldHaveLength, 1)

			_, err = LoadRulesFile(filepath.Join(t.TempDir(), "nope.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
