package resolve_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/formfill/internal/domain/intent"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/resolve"
	. "github.com/smartystreets/goconvey/convey"
)

type mockProfiles struct {
	profile *model.Profile
	err     error
	calls   int
}

func (m *mockProfiles) Profile(context.Context) (*model.Profile, error) {
	m.calls++
	return m.profile, m.err
}

type mockStore struct {
	mu        sync.Mutex
	answers   map[string]string
	err       error
	upsertErr error
	resolves  int
	upserts   []model.AnswerRecord
}

func (m *mockStore) Resolve(_ context.Context, q string, _ model.Intent) (model.Lookup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolves++
	if m.err != nil {
		return model.Lookup{}, m.err
	}
	a, ok := m.answers[q]
	return model.Lookup{Found: ok, Answer: a, Source: model.LookupByQuestion}, nil
}

func (m *mockStore) Upsert(_ context.Context, rec model.AnswerRecord) (model.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return model.UpsertResult{}, m.upsertErr
	}
	m.upserts = append(m.upserts, rec)
	return model.UpsertResult{}, nil
}

type mockDrafter struct {
	draft string
	err   error
	reqs  []model.DraftRequest
}

func (m *mockDrafter) Draft(_ context.Context, req model.DraftRequest) (string, error) {
	m.reqs = append(m.reqs, req)
	return m.draft, m.err
}

func TestResolveScenarios(t *testing.T) {
	Convey("Given a resolver with every collaborator", t, func() {
		ctx := context.Background()
		profiles := &mockProfiles{profile: &model.Profile{FullName: "Jane Q Doe", Email: "a@b.com", Skills: []string{"Go"}}}
		store := &mockStore{answers: map[string]string{"Are you legally authorized to work?": "Yes"}}
		drafter := &mockDrafter{draft: "  Because...  "}
		r := resolve.New(
			resolve.WithProfileProvider(profiles),
			resolve.WithAnswerStore(store),
			resolve.WithDrafter(drafter),
		)
		pass := resolve.NewPass("p1", model.JobContext{Company: "Acme", Role: "Engineer"})

		Convey("When resolving an email input", func() {
			c := model.FormControl{Kind: model.KindText, Question: "Email Address"}
			res := r.Resolve(ctx, pass, c, intent.Email)

			Convey("Then the profile answers it", func() {
				So(res, ShouldResemble, model.Resolution{Value: "a@b.com", Source: model.SourceProfile})
			})
		})

		Convey("When resolving name parts", func() {
			first := r.Resolve(ctx, pass, model.FormControl{Kind: model.KindText, Question: "First"}, intent.FirstName)
			last := r.Resolve(ctx, pass, model.FormControl{Kind: model.KindText, Question: "Last"}, intent.LastName)

			Convey("Then the full name is split and the profile is fetched once", func() {
				So(first.Value, ShouldEqual, "Jane")
				So(last.Value, ShouldEqual, "Doe")
				So(profiles.calls, ShouldEqual, 1)
			})
		})

		Convey("When resolving a select the store knows", func() {
			c := model.FormControl{Kind: model.KindSelect, Question: "Are you legally authorized to work?", Choices: []string{"Yes", "No"}}
			res := r.Resolve(ctx, pass, c, intent.Authorization)

			Convey("Then the store answers it", func() {
				So(res, ShouldResemble, model.Resolution{Value: "Yes", Source: model.SourceStore})
			})
		})

		Convey("When resolving a referral button group with no stored answer", func() {
			c := model.FormControl{Kind: model.KindButtonGroup, Question: "How did you hear about us?",
				Choices: []string{"LinkedIn", "Company Website", "Indeed"}}
			res := r.Resolve(ctx, pass, c, intent.ReferralSource)

			Convey("Then the heuristic picks the company website and persists it", func() {
				So(res, ShouldResemble, model.Resolution{Value: "Company Website", Source: model.SourceHeuristic, Persisted: true})
				So(store.upserts, ShouldHaveLength, 1)
				So(store.upserts[0].Answer, ShouldEqual, "Company Website")
				So(store.upserts[0].Key, ShouldEqual, "how did you hear about us")
				So(store.upserts[0].Intent, ShouldEqual, intent.ReferralSource)
				So(store.upserts[0].Choices, ShouldResemble, c.Choices)
			})

			Convey("Then the same question later in the pass hits the cache", func() {
				again := r.Resolve(ctx, pass, c, intent.ReferralSource)
				So(again.Source, ShouldEqual, model.SourceStore)
				So(again.Value, ShouldEqual, "Company Website")
				So(store.resolves, ShouldEqual, 1)
			})
		})

		Convey("When resolving an empty open-ended textarea", func() {
			c := model.FormControl{Kind: model.KindTextarea, Question: "Why do you want to work here?"}
			res := r.Resolve(ctx, pass, c, model.IntentNone)

			Convey("Then a trimmed draft is returned with context and profile summary", func() {
				So(res, ShouldResemble, model.Resolution{Value: "Because...", Source: model.SourceGenerated})
				So(drafter.reqs, ShouldHaveLength, 1)
				So(drafter.reqs[0].Question, ShouldEqual, c.Question)
				So(drafter.reqs[0].Job.Company, ShouldEqual, "Acme")
				So(drafter.reqs[0].ProfileSummary, ShouldContainSubstring, "Jane Q Doe")
			})
		})
	})
}

func TestResolvePrecedence(t *testing.T) {
	Convey("Given a referral select every tier could answer", t, func() {
		ctx := context.Background()
		c := model.FormControl{Kind: model.KindSelect, Question: "Website", Choices: []string{"Careers page", "Personal website"}}
		prof := &mockProfiles{profile: &model.Profile{Links: model.Links{Website: "https://jane.dev"}}}
		store := &mockStore{answers: map[string]string{"Website": "Careers page"}}
		prefs := resolve.WithPreferences(map[model.Intent][]resolve.Preference{intent.Website: {{"website"}}})

		Convey("Then the profile wins when present", func() {
			r := resolve.New(resolve.WithProfileProvider(prof), resolve.WithAnswerStore(store), prefs)
			So(r.Resolve(ctx, resolve.NewPass("p", model.JobContext{}), c, intent.Website).Source, ShouldEqual, model.SourceProfile)
		})

		Convey("Then the store wins without a profile", func() {
			r := resolve.New(resolve.WithAnswerStore(store), prefs)
			So(r.Resolve(ctx, resolve.NewPass("p", model.JobContext{}), c, intent.Website).Source, ShouldEqual, model.SourceStore)
		})

		Convey("Then the heuristic wins with neither", func() {
			r := resolve.New(resolve.WithAnswerStore(&mockStore{}), prefs)
			res := r.Resolve(ctx, resolve.NewPass("p", model.JobContext{}), c, intent.Website)
			So(res.Source, ShouldEqual, model.SourceHeuristic)
			So(res.Value, ShouldEqual, "Personal website")
		})
	})
}

func TestResolveGuards(t *testing.T) {
	Convey("Given a resolver whose tiers all have answers", t, func() {
		ctx := context.Background()
		store := &mockStore{answers: map[string]string{"First Name": "Stored"}}
		drafter := &mockDrafter{draft: "draft"}
		r := resolve.New(
			resolve.WithProfileProvider(&mockProfiles{profile: &model.Profile{FullName: "Jane Doe"}}),
			resolve.WithAnswerStore(store),
			resolve.WithDrafter(drafter),
		)
		pass := resolve.NewPass("p", model.JobContext{})

		Convey("When a free-text control already holds a value", func() {
			c := model.FormControl{Kind: model.KindText, Question: "First Name", CurrentValue: "Jane"}
			res := r.Resolve(ctx, pass, c, intent.FirstName)

			Convey("Then no tier runs", func() {
				So(res.Resolved(), ShouldBeFalse)
				So(res.Source, ShouldEqual, model.SourceNone)
				So(store.resolves, ShouldEqual, 0)
				So(drafter.reqs, ShouldBeEmpty)
			})
		})

		Convey("When a closed-choice control has a default selection", func() {
			c := model.FormControl{Kind: model.KindSelect, Question: "First Name", CurrentValue: "Pick", Choices: []string{"Pick", "Jane"}}
			res := r.Resolve(ctx, pass, c, intent.FirstName)

			Convey("Then it is still resolved", func() {
				So(res.Value, ShouldEqual, "Jane")
			})
		})

		Convey("When drafting is disabled", func() {
			off := resolve.New(resolve.WithDrafter(drafter), resolve.WithAutoDraft(false))
			res := off.Resolve(ctx, pass, model.FormControl{Kind: model.KindTextarea, Question: "Tell us about you"}, model.IntentNone)

			Convey("Then open-ended controls stay unresolved", func() {
				So(res.Resolved(), ShouldBeFalse)
				So(drafter.reqs, ShouldBeEmpty)
			})
		})

		Convey("When the control is closed-choice or structured", func() {
			onlyDraft := resolve.New(resolve.WithDrafter(drafter))
			sel := onlyDraft.Resolve(ctx, pass, model.FormControl{Kind: model.KindSelect, Question: "Why?", Choices: []string{"A"}}, model.IntentNone)
			txt := onlyDraft.Resolve(ctx, pass, model.FormControl{Kind: model.KindText, Question: "Email"}, intent.Email)

			Convey("Then nothing is drafted", func() {
				So(sel.Resolved(), ShouldBeFalse)
				So(txt.Resolved(), ShouldBeFalse)
				So(drafter.reqs, ShouldBeEmpty)
			})
		})
	})
}

func TestResolveFailures(t *testing.T) {
	Convey("Given collaborators that fail", t, func() {
		ctx := context.Background()
		boom := errors.New("boom")
		store := &mockStore{err: boom, upsertErr: boom}
		r := resolve.New(
			resolve.WithProfileProvider(&mockProfiles{err: boom}),
			resolve.WithAnswerStore(store),
			resolve.WithDrafter(&mockDrafter{err: boom}),
		)
		pass := resolve.NewPass("p", model.JobContext{})

		Convey("Then failures fall through to the next tier", func() {
			c := model.FormControl{Kind: model.KindRadioGroup, Question: "How did you hear about us?",
				Choices: []string{"Referral", "Our careers page"}}
			res := r.Resolve(ctx, pass, c, intent.ReferralSource)
			So(res.Source, ShouldEqual, model.SourceHeuristic)
			So(res.Value, ShouldEqual, "Our careers page")
			So(res.Persisted, ShouldBeFalse)
		})

		Convey("Then a failed draft leaves the control unresolved", func() {
			res := r.Resolve(ctx, pass, model.FormControl{Kind: model.KindTextarea, Question: "Describe a project"}, model.IntentNone)
			So(res, ShouldResemble, model.Unresolved())
		})

		Convey("Then failed lookups are retried on the next control", func() {
			c := model.FormControl{Kind: model.KindText, Question: "Email"}
			r.Resolve(ctx, pass, c, model.IntentNone)
			r.Resolve(ctx, pass, c, model.IntentNone)
			So(store.resolves, ShouldEqual, 2)
			So(pass.CacheSize(), ShouldEqual, 0)
		})
	})
}
