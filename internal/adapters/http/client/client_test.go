package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/formfill/internal/adapters/http/api"
	"github.com/okian/formfill/internal/adapters/http/client"
	"github.com/okian/formfill/internal/adapters/repository"
	"github.com/okian/formfill/internal/backend"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/internal/domain/resolve"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	_ resolve.AnswerStore     = (*client.Client)(nil)
	_ resolve.ProfileProvider = (*client.Client)(nil)
	_ resolve.Drafter         = (*client.Client)(nil)
)

type echoDrafter struct{}

func (echoDrafter) Draft(_ context.Context, req model.DraftRequest) (string, error) {
	return "Drafted for " + req.Job.Company, nil
}

func newBackendServer(t *testing.T, opts ...backend.Option) *httptest.Server {
	store := repository.NewMemoryStore(context.Background())
	svc := backend.New(store, opts...)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(api.Handler(mux))
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return srv
}

func TestClientAgainstBackend(t *testing.T) {
	Convey("Given a client pointed at a running backend", t, func() {
		ctx := context.Background()
		srv := newBackendServer(t)
		c := client.New(srv.URL+"/", client.WithHTTPClient(srv.Client()))

		Convey("Then an unknown question is not found", func() {
			l, err := c.Resolve(ctx, "Are you a citizen?", "authorization")
			So(err, ShouldBeNil)
			So(l.Found, ShouldBeFalse)
		})

		Convey("When an answer is upserted", func() {
			res, err := c.Upsert(ctx, model.AnswerRecord{
				Question: "Are you a citizen?", Answer: "Yes", Choices: []string{"Yes", "No"}, Intent: "authorization",
			})
			So(err, ShouldBeNil)
			So(res.Updated, ShouldBeFalse)

			Convey("Then it resolves by question and by intent", func() {
				l, err := c.Resolve(ctx, "are you a CITIZEN", model.IntentNone)
				So(err, ShouldBeNil)
				So(l, ShouldResemble, model.Lookup{Found: true, Answer: "Yes", Source: model.LookupByQuestion})

				l, err = c.Resolve(ctx, "Work authorization status", "authorization")
				So(err, ShouldBeNil)
				So(l.Source, ShouldEqual, model.LookupByIntent)
			})

			Convey("Then a changed answer reports an update", func() {
				res, err := c.Upsert(ctx, model.AnswerRecord{Question: "Are you a citizen?", Answer: "No"})
				So(err, ShouldBeNil)
				So(res.Updated, ShouldBeTrue)
			})

			Convey("Then it shows up in the history", func() {
				recs, err := c.History(ctx, 10)
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Choices, ShouldResemble, []string{"Yes", "No"})
			})
		})

		Convey("Then a missing profile is nil without error", func() {
			p, err := c.Profile(ctx)
			So(err, ShouldBeNil)
			So(p, ShouldBeNil)
		})

		Convey("When a resume is uploaded", func() {
			p, err := c.ParseResume(ctx, "Jane Doe\njane@example.com\n")
			So(err, ShouldBeNil)
			So(p.FullName, ShouldEqual, "Jane Doe")

			Convey("Then the profile is served", func() {
				got, err := c.Profile(ctx)
				So(err, ShouldBeNil)
				So(got.Email, ShouldEqual, "jane@example.com")
			})
		})

		Convey("Then an unavailable draft comes back empty", func() {
			text, err := c.Draft(ctx, model.DraftRequest{Question: "Why us?"})
			So(err, ShouldBeNil)
			So(text, ShouldBeEmpty)
		})

		Convey("Then a bad request surfaces as ErrStatus", func() {
			_, err := c.Resolve(ctx, "  ", model.IntentNone)
			So(errors.Is(err, client.ErrStatus), ShouldBeTrue)
			var se *client.StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a backend with a drafter", t, func() {
		srv := newBackendServer(t, backend.WithDrafter(echoDrafter{}))
		c := client.New(srv.URL)

		Convey("Then the generated draft is returned", func() {
			text, err := c.Draft(context.Background(), model.DraftRequest{
				Question: "Why us?",
				Job:      model.JobContext{Company: "Acme"},
			})
			So(err, ShouldBeNil)
			So(text, ShouldEqual, "Drafted for Acme")
		})
	})
}

func TestClientFailures(t *testing.T) {
	Convey("Given a backend that fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":"internal_error","message":"disk full"}`))
		}))
		defer srv.Close()
		c := client.New(srv.URL)

		Convey("Then the status and message are reported", func() {
			_, err := c.Upsert(context.Background(), model.AnswerRecord{Question: "q", Answer: "a"})
			So(errors.Is(err, client.ErrStatus), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "disk full")

			_, err = c.Profile(context.Background())
			So(errors.Is(err, client.ErrStatus), ShouldBeTrue)
		})
	})

	Convey("Given a backend slower than the timeout", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)
		c := client.New(srv.URL, client.WithTimeout(20*time.Millisecond))

		Convey("Then the call fails with a deadline error", func() {
			_, err := c.Resolve(context.Background(), "q", model.IntentNone)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}
