package question

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given question texts", t, func() {
		cases := map[string]string{
			"  First Name * ":                         "first name",
			"How did you hear about us?":              "how did you hear about us",
			"E-mail\taddress":                         "e mail address",
			"Are you authorized to work in the U.S.?": "are you authorized to work in the u s",
			"STRASSE":                         "strasse",
			"":                                "",
			"???":                             "",
			"Years of experience (2020-2024)": "years of experience 2020 2024",
		}

		Convey("Then Normalize folds, strips punctuation and collapses whitespace", func() {
			for in, want := range cases {
				So(Normalize(in), ShouldEqual, want)
			}
		})

		Convey("Then Normalize is idempotent", func() {
			for in := range cases {
				once := Normalize(in)
				So(Normalize(once), ShouldEqual, once)
			}
			for _, in := range []string{"İstanbul office?", "ＦＵＬＬ　ＮＡＭＥ", "Ǆemal's résumé"} {
				once := Normalize(in)
				So(Normalize(once), ShouldEqual, once)
			}
		})

		Convey("Then differently formatted questions share a key", func() {
			So(Normalize("Phone Number:"), ShouldEqual, Normalize("phone   number"))
		})
	})
}

func TestIsOpenEnded(t *testing.T) {
	Convey("Given open-ended markers", t, func() {
		So(IsOpenEnded("Why do you want to work here?"), ShouldBeTrue)
		So(IsOpenEnded("Describe your experience"), ShouldBeTrue)
		So(IsOpenEnded("Tell us about a project"), ShouldBeTrue)
		So(IsOpenEnded("Cover Letter"), ShouldBeTrue)
		So(IsOpenEnded("First name"), ShouldBeFalse)
	})
}
