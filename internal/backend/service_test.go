package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/formfill/internal/adapters/repository"
	"github.com/okian/formfill/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type stubDrafter struct {
	text string
	err  error
	last model.DraftRequest
}

func (d *stubDrafter) Draft(_ context.Context, req model.DraftRequest) (string, error) {
	d.last = req
	return d.text, d.err
}

func TestClosedQuestions(t *testing.T) {
	Convey("Given a backend over an empty memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		defer store.Close()
		svc := New(store)

		Convey("When an unknown question is looked up", func() {
			a, err := svc.Lookup(ctx, "Are you authorized to work in the US?", "authorization")

			Convey("Then nothing is found and the key is normalized", func() {
				So(err, ShouldBeNil)
				So(a.Found, ShouldBeFalse)
				So(a.Normalized, ShouldEqual, "are you authorized to work in the us")
			})
		})

		Convey("When an answer is remembered with an intent", func() {
			a, err := svc.Remember(ctx, model.AnswerRecord{
				Question: "  Are you authorized to work in the US? ",
				Answer:   " Yes ",
				Choices:  []string{"Yes", "No"},
				Intent:   "authorization",
			})

			Convey("Then it is stored trimmed and not reported as an update", func() {
				So(err, ShouldBeNil)
				So(a.Stored, ShouldBeTrue)
				So(a.Updated, ShouldBeFalse)
				So(a.Answer, ShouldEqual, "Yes")

				rec, err := store.Get(ctx, "are you authorized to work in the us")
				So(err, ShouldBeNil)
				So(rec.Question, ShouldEqual, "Are you authorized to work in the US?")
			})

			Convey("Then a differently punctuated question hits the same record", func() {
				hit, err := svc.Lookup(ctx, "are you AUTHORIZED to work in the US", model.IntentNone)
				So(err, ShouldBeNil)
				So(hit.Found, ShouldBeTrue)
				So(hit.Answer, ShouldEqual, "Yes")
				So(hit.Source, ShouldEqual, model.LookupByQuestion)
			})

			Convey("Then another question with the same intent falls back to the intent answer", func() {
				hit, err := svc.Lookup(ctx, "Do you have the right to work here?", "authorization")
				So(err, ShouldBeNil)
				So(hit.Found, ShouldBeTrue)
				So(hit.Answer, ShouldEqual, "Yes")
				So(hit.Source, ShouldEqual, model.LookupByIntent)
			})

			Convey("Then a changed answer is reported as an update", func() {
				a, err := svc.Remember(ctx, model.AnswerRecord{Question: "Are you authorized to work in the US?", Answer: "No", Intent: "authorization"})
				So(err, ShouldBeNil)
				So(a.Updated, ShouldBeTrue)
			})

			Convey("Then a new question whose intent answer changes is reported as an update", func() {
				a, err := svc.Remember(ctx, model.AnswerRecord{Question: "Eligible to work?", Answer: "No", Intent: "authorization"})
				So(err, ShouldBeNil)
				So(a.Updated, ShouldBeTrue)
			})
		})

		Convey("When the question is blank", func() {
			_, err := svc.Lookup(ctx, " ?! ", model.IntentNone)
			_, err2 := svc.Remember(ctx, model.AnswerRecord{Question: "", Answer: "x"})

			Convey("Then ErrEmptyQuestion is returned", func() {
				So(errors.Is(err, ErrEmptyQuestion), ShouldBeTrue)
				So(errors.Is(err2, ErrEmptyQuestion), ShouldBeTrue)
			})
		})

		Convey("When used through the pipeline contracts", func() {
			res, err := svc.Upsert(ctx, model.AnswerRecord{Question: "Visa sponsorship?", Answer: "No", Intent: "visa"})
			So(err, ShouldBeNil)
			So(res.Updated, ShouldBeFalse)

			lookup, err := svc.Resolve(ctx, "Visa sponsorship", "visa")

			Convey("Then the lookup reflects the write", func() {
				So(err, ShouldBeNil)
				So(lookup, ShouldResemble, model.Lookup{Found: true, Answer: "No", Source: model.LookupByQuestion})
				So(svc.Stats(ctx)["answers"], ShouldEqual, 1)
			})
		})
	})
}

func TestProfileAndHistory(t *testing.T) {
	Convey("Given a backend over an empty memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		defer store.Close()
		svc := New(store, WithHistoryLimit(1))

		Convey("Then no profile is reported as nil without error", func() {
			p, err := svc.Profile(ctx)
			So(err, ShouldBeNil)
			So(p, ShouldBeNil)
		})

		Convey("When a resume is parsed", func() {
			p, err := svc.ParseResume(ctx, "Jane Doe\njane@example.com\nSkills\nGo\nSQL\n")

			Convey("Then the profile is stored", func() {
				So(err, ShouldBeNil)
				So(p.FullName, ShouldEqual, "Jane Doe")
				stored, err := svc.Profile(ctx)
				So(err, ShouldBeNil)
				So(stored.Email, ShouldEqual, "jane@example.com")
				So(stored.Skills, ShouldResemble, []string{"Go", "SQL"})
			})
		})

		Convey("When the resume is blank", func() {
			_, err := svc.ParseResume(ctx, "  \n ")
			So(errors.Is(err, ErrEmptyResume), ShouldBeTrue)
		})

		Convey("When two answers are stored", func() {
			_, _ = svc.Remember(ctx, model.AnswerRecord{Question: "First?", Answer: "a"})
			_, _ = svc.Remember(ctx, model.AnswerRecord{Question: "Second?", Answer: "b"})

			Convey("Then history honours the default limit and an explicit one", func() {
				recs, err := svc.History(ctx, 0)
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
				recs, err = svc.History(ctx, 5)
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
			})
		})
	})
}

func TestOpenQuestions(t *testing.T) {
	Convey("Given a stored profile", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		defer store.Close()
		So(store.SaveProfile(ctx, model.Profile{FullName: "Jane Doe", Skills: []string{"Go"}}), ShouldBeNil)

		req := model.DraftRequest{
			Question: "Why do you want to work here?",
			Job:      model.JobContext{Company: "Acme", Role: "Engineer"},
		}

		Convey("When no drafter is configured", func() {
			a, err := New(store).OpenQuestion(ctx, req)

			Convey("Then the draft is empty and marked unavailable", func() {
				So(err, ShouldBeNil)
				So(a.Draft, ShouldBeEmpty)
				So(a.Source, ShouldEqual, DraftUnavailable)
				So(a.ResumeIncluded, ShouldBeTrue)
				So(a.ContextIncluded, ShouldBeTrue)
			})
		})

		Convey("When the drafter answers", func() {
			d := &stubDrafter{text: "  I like Acme.  "}
			svc := New(store, WithDrafter(d))
			text, err := svc.Draft(ctx, req)

			Convey("Then the draft is trimmed and the profile summary is filled in", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "I like Acme.")
				So(d.last.ProfileSummary, ShouldContainSubstring, "Jane Doe")
			})
		})

		Convey("When the drafter fails", func() {
			a, err := New(store, WithDrafter(&stubDrafter{err: errors.New("quota")})).OpenQuestion(ctx, req)

			Convey("Then the failure is reported as a fallback", func() {
				So(err, ShouldBeNil)
				So(a.Source, ShouldEqual, DraftFallback)
				So(a.Draft, ShouldBeEmpty)
			})
		})

		Convey("When the question is blank", func() {
			_, err := New(store).OpenQuestion(ctx, model.DraftRequest{Question: " "})
			So(errors.Is(err, ErrEmptyQuestion), ShouldBeTrue)
		})
	})
}
