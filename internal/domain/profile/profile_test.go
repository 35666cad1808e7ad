package profile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleProfile() *model.Profile {
	return &model.Profile{
		FullName:   "Jane Q Doe",
		Email:      "jane@example.com",
		Phone:      "+1 555 010 9999",
		Location:   "Berlin, Germany",
		Links:      model.Links{LinkedIn: "linkedin.com/in/jane", GitHub: "github.com/jane", Website: "jane.dev"},
		Education:  []string{"MSc CS", "BSc Math"},
		Experience: []string{"Acme 2020-2024", "Initech 2018-2020"},
		Skills:     []string{"Go", "SQL"},
	}
}

func TestField(t *testing.T) {
	Convey("Given a profile", t, func() {
		p := sampleProfile()

		Convey("Then name intents split the full name", func() {
			v, ok := Field(p, intent.FirstName)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "Jane")
			v, _ = Field(p, intent.LegalLastName)
			So(v, ShouldEqual, "Doe")
			v, _ = Field(p, intent.Name)
			So(v, ShouldEqual, "Jane Q Doe")
		})

		Convey("Then contact and link intents read their fields", func() {
			v, _ := Field(p, intent.City)
			So(v, ShouldEqual, "Berlin")
			v, _ = Field(p, intent.Location)
			So(v, ShouldEqual, "Berlin, Germany")
			v, _ = Field(p, intent.GitHub)
			So(v, ShouldEqual, "github.com/jane")
			v, _ = Field(p, intent.Portfolio)
			So(v, ShouldEqual, "jane.dev")
		})

		Convey("Then list intents are joined", func() {
			v, _ := Field(p, intent.Education)
			So(v, ShouldEqual, "MSc CS; BSc Math")
			v, _ = Field(p, intent.Skills)
			So(v, ShouldEqual, "Go, SQL")
		})

		Convey("Then intents without a field report ok=false", func() {
			_, ok := Field(p, intent.ReferralSource)
			So(ok, ShouldBeFalse)
			_, ok = Field(p, model.IntentNone)
			So(ok, ShouldBeFalse)
			_, ok = Field(nil, intent.Email)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSplitName(t *testing.T) {
	Convey("Given full names", t, func() {
		first, last := SplitName("Jane Doe")
		So(first, ShouldEqual, "Jane")
		So(last, ShouldEqual, "Doe")

		first, last = SplitName("  Cher ")
		So(first, ShouldEqual, "Cher")
		So(last, ShouldEqual, "")

		first, last = SplitName("")
		So(first, ShouldEqual, "")
		So(last, ShouldEqual, "")
	})
}

func TestSummary(t *testing.T) {
	Convey("Given profiles", t, func() {
		Convey("Then structured fields are joined with pipes", func() {
			So(Summary(sampleProfile()), ShouldEqual,
				"Jane Q Doe | jane@example.com, +1 555 010 9999 | Skills: Go; SQL | Education: MSc CS; BSc Math | Experience highlights: Acme 2020-2024; Initech 2018-2020")
		})

		Convey("Then the free-text summary is the fallback", func() {
			So(Summary(&model.Profile{Summary: "Engineer."}), ShouldEqual, "Engineer.")
			So(Summary(nil), ShouldEqual, "")
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given a plain-text résumé", t, func() {
		text := `Jane Doe
jane.doe+jobs@example.com | +1 555 010 9999 | linkedin.com/in/janedoe | https://github.com/janedoe

Skills
Go
Kubernetes
PostgreSQL

Experience
Acme Corp, Staff Engineer, 2020-2024
Initech, Engineer, 2018-2020

Education
MSc Computer Science, TU Berlin
`
		p := Parse(text)

		Convey("Then contact details are extracted", func() {
			So(p.FullName, ShouldEqual, "Jane Doe")
			So(p.Email, ShouldEqual, "jane.doe+jobs@example.com")
			So(p.Phone, ShouldEqual, "+1 555 010 9999")
			So(p.Links.LinkedIn, ShouldEqual, "linkedin.com/in/janedoe")
			So(p.Links.GitHub, ShouldEqual, "https://github.com/janedoe")
		})

		Convey("Then sections take up to six following lines", func() {
			So(cmp.Diff([]string{"Go", "Kubernetes", "PostgreSQL", "Experience", "Acme Corp, Staff Engineer, 2020-2024", "Initech, Engineer, 2018-2020"}, p.Skills), ShouldBeEmpty)
			So(cmp.Diff([]string{"MSc Computer Science, TU Berlin"}, p.Education), ShouldBeEmpty)
			So(p.Experience[0], ShouldEqual, "Acme Corp, Staff Engineer, 2020-2024")
		})

		Convey("Then the summary is the collapsed text", func() {
			So(strings.HasPrefix(p.Summary, "Jane Doe jane.doe+jobs@example.com"), ShouldBeTrue)
			So(strings.Contains(p.Summary, "\n"), ShouldBeFalse)
		})
	})

	Convey("Given a very long résumé", t, func() {
		p := Parse(strings.Repeat("é", 5000))

		Convey("Then the summary is capped by runes", func() {
			So([]rune(p.Summary), ShouldHaveLength, 1200)
		})
	})

	Convey("Given empty text", t, func() {
		p := Parse("")
		So(p.FullName, ShouldEqual, "")
		So(p.Skills, ShouldBeNil)
	})
}
