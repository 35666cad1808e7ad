package model

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestControlKinds(t *testing.T) {
	Convey("Given the control kinds", t, func() {
		Convey("Then free text and closed choice partition them", func() {
			for _, k := range []Kind{KindText, KindTextarea} {
				So(k.FreeText(), ShouldBeTrue)
				So(k.ClosedChoice(), ShouldBeFalse)
			}
			for _, k := range []Kind{KindSelect, KindRadioGroup, KindCheckbox, KindButtonGroup} {
				So(k.FreeText(), ShouldBeFalse)
				So(k.ClosedChoice(), ShouldBeTrue)
			}
		})

		Convey("Then only non-empty free text is prefilled", func() {
			So((&FormControl{Kind: KindText, CurrentValue: "Jane"}).Prefilled(), ShouldBeTrue)
			So((&FormControl{Kind: KindTextarea, CurrentValue: "  "}).Prefilled(), ShouldBeFalse)
			So((&FormControl{Kind: KindSelect, CurrentValue: "Yes"}).Prefilled(), ShouldBeFalse)
		})

		Convey("Then open-ended means textarea or unclassified text", func() {
			So((&FormControl{Kind: KindTextarea}).OpenEnded("email"), ShouldBeTrue)
			So((&FormControl{Kind: KindText}).OpenEnded(IntentNone), ShouldBeTrue)
			So((&FormControl{Kind: KindText}).OpenEnded("email"), ShouldBeFalse)
			So((&FormControl{Kind: KindSelect}).OpenEnded(IntentNone), ShouldBeFalse)
		})
	})
}

func TestPassSummary(t *testing.T) {
	Convey("Given an empty pass summary", t, func() {
		var s PassSummary

		Convey("When reports are added", func() {
			s.Add(ControlReport{Outcome: OutcomeApplied, Source: SourceProfile})
			s.Add(ControlReport{Outcome: OutcomeApplied, Source: SourceStore})
			s.Add(ControlReport{Outcome: OutcomeApplied, Source: SourceStore})
			s.Add(ControlReport{Outcome: OutcomeUnmatched, Source: SourceStore})
			s.Add(ControlReport{Outcome: OutcomeSkipped, Source: SourceNone})
			s.Add(ControlReport{Outcome: OutcomeUnresolved, Source: SourceNone})

			Convey("Then the counters add up", func() {
				So(s.Controls, ShouldEqual, 6)
				So(s.Resolved, ShouldEqual, 3)
				So(s.Unmatched, ShouldEqual, 1)
				So(s.Skipped, ShouldEqual, 1)
				So(s.Unresolved, ShouldEqual, 1)
				So(s.BySource[SourceStore], ShouldEqual, 2)
				So(s.Reports, ShouldHaveLength, 6)
			})
		})
	})
}

func TestIntentString(t *testing.T) {
	Convey("The empty intent renders as none", t, func() {
		So(IntentNone.String(), ShouldEqual, "none")
		So(Intent("email").String(), ShouldEqual, "email")
		So(Unresolved().Resolved(), ShouldBeFalse)
	})
}
