package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/formfill/internal/adapters/http/api"
	"github.com/okian/formfill/internal/adapters/repository"
	"github.com/okian/formfill/internal/backend"
	"github.com/okian/formfill/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDrafter struct {
	text string
	err  error
}

func (m *mockDrafter) Draft(context.Context, model.DraftRequest) (string, error) {
	return m.text, m.err
}

type failingBackend struct {
	api.Backend
}

func (failingBackend) History(context.Context, int) ([]model.AnswerRecord, error) {
	return nil, errors.New("disk on fire")
}

func newTestMux(t *testing.T, opts ...backend.Option) (*http.ServeMux, *backend.Service) {
	store := repository.NewMemoryStore(context.Background())
	t.Cleanup(func() { _ = store.Close() })
	svc := backend.New(store, opts...)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux, svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, _ := newTestMux(t)

		Convey("Then /health reports ok", func() {
			w := do(mux, http.MethodGet, "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("Then /healthz serves Prometheus metrics", func() {
			_ = do(mux, http.MethodGet, "/health", "")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Then /stats returns the service counters", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w), ShouldContainKey, "lookups")
		})

		Convey("Then write routes reject the wrong method", func() {
			So(do(mux, http.MethodGet, "/closed-question", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/open-question", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/qa-history", "{}").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestClosedQuestion(t *testing.T) {
	Convey("Given an empty answer memory", t, func() {
		mux, _ := newTestMux(t)

		Convey("When an unknown question is posted", func() {
			w := do(mux, http.MethodPost, "/closed-question", `{"question":"Are you authorized to work?","intent":"authorization"}`)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["found"], ShouldEqual, false)
				So(body["normalized"], ShouldEqual, "are you authorized to work")
			})
		})

		Convey("When an answer is posted", func() {
			w := do(mux, http.MethodPost, "/closed-question",
				`{"question":"Are you authorized to work?","answer":"Yes","choices":["Yes","No"],"intent":"authorization"}`)

			Convey("Then it is stored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["stored"], ShouldEqual, true)
				So(body["found"], ShouldEqual, true)
			})

			Convey("Then the same question finds it", func() {
				body := decode(do(mux, http.MethodPost, "/closed-question", `{"question":"are you AUTHORIZED to work"}`))
				So(body["found"], ShouldEqual, true)
				So(body["answer"], ShouldEqual, "Yes")
				So(body["source"], ShouldEqual, "question")
			})

			Convey("Then another question with the intent falls back", func() {
				body := decode(do(mux, http.MethodPost, "/closed-question", `{"question":"Eligible to work in the EU?","intent":"authorization"}`))
				So(body["found"], ShouldEqual, true)
				So(body["source"], ShouldEqual, "intent")
			})

			Convey("Then changing the answer reports an update", func() {
				body := decode(do(mux, http.MethodPost, "/closed-question", `{"question":"Are you authorized to work?","answer":"No"}`))
				So(body["updated"], ShouldEqual, true)
			})
		})

		Convey("When the payload is malformed", func() {
			So(do(mux, http.MethodPost, "/closed-question", `{"question":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/closed-question", `{"question":"  "}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/closed-question", `{"question":"?!"}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOpenQuestion(t *testing.T) {
	Convey("Given no drafter", t, func() {
		mux, _ := newTestMux(t)

		Convey("When a draft is requested", func() {
			w := do(mux, http.MethodPost, "/open-question",
				`{"question":"Why us?","job_context":{"company":"Acme"},"resume_summary":"Go engineer"}`)

			Convey("Then it is marked unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["source"], ShouldEqual, backend.DraftUnavailable)
				So(body["resume_included"], ShouldEqual, true)
				So(body["context_included"], ShouldEqual, true)
			})
		})

		Convey("When the question is missing", func() {
			So(do(mux, http.MethodPost, "/open-question", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a drafter", t, func() {
		mux, _ := newTestMux(t, backend.WithDrafter(&mockDrafter{text: "Because."}))

		Convey("Then the draft is returned", func() {
			body := decode(do(mux, http.MethodPost, "/open-question", `{"question":"Why us?"}`))
			So(body["draft"], ShouldEqual, "Because.")
			So(body["source"], ShouldEqual, backend.DraftGenerated)
			So(body["context_included"], ShouldEqual, false)
		})
	})
}

func TestResume(t *testing.T) {
	Convey("Given no stored resume", t, func() {
		mux, _ := newTestMux(t)

		Convey("Then GET /resume is not found", func() {
			w := do(mux, http.MethodGet, "/resume", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When raw resume text is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/parse-resume", strings.NewReader("Jane Doe\njane@example.com\n"))
			req.Header.Set("Content-Type", "text/plain")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is parsed and served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["cached"], ShouldEqual, true)

				got := decode(do(mux, http.MethodGet, "/resume", ""))
				So(got["full_name"], ShouldEqual, "Jane Doe")
				So(got["email"], ShouldEqual, "jane@example.com")
			})
		})

		Convey("When a multipart file is posted", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, _ := mw.CreateFormFile("file", "resume.txt")
			_, _ = part.Write([]byte("John Smith\nSkills\nRust\n"))
			_ = mw.Close()

			req := httptest.NewRequest(http.MethodPost, "/parse-resume", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the filename and profile are echoed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["filename"], ShouldEqual, "resume.txt")
				So(body["resume"].(map[string]interface{})["full_name"], ShouldEqual, "John Smith")
			})
		})

		Convey("When an empty body is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/parse-resume", strings.NewReader("  "))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHistory(t *testing.T) {
	Convey("Given two stored answers", t, func() {
		mux, _ := newTestMux(t)
		_ = do(mux, http.MethodPost, "/closed-question", `{"question":"First?","answer":"a"}`)
		_ = do(mux, http.MethodPost, "/closed-question", `{"question":"Second?","answer":"b"}`)

		Convey("Then the history lists them", func() {
			body := decode(do(mux, http.MethodGet, "/qa-history", ""))
			So(body["count"], ShouldEqual, float64(2))
		})

		Convey("Then a limit is honoured", func() {
			body := decode(do(mux, http.MethodGet, "/qa-history?limit=1", ""))
			So(body["count"], ShouldEqual, float64(1))
		})

		Convey("Then a bad limit is rejected", func() {
			So(do(mux, http.MethodGet, "/qa-history?limit=x", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a failing backend", t, func() {
		mux := http.NewServeMux()
		api.NewServer(failingBackend{}, nil).Register(context.Background(), mux)

		Convey("Then the history is a server error", func() {
			So(do(mux, http.MethodGet, "/qa-history", "").Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("Then stats still answer with an empty object", func() {
			So(do(mux, http.MethodGet, "/stats", "").Body.String(), ShouldEqual, "{}\n")
		})
	})
}

func TestCORSMiddleware(t *testing.T) {
	Convey("Given the wrapped handler", t, func() {
		mux, _ := newTestMux(t)
		h := api.Handler(mux)

		Convey("When a preflight request arrives", func() {
			req := httptest.NewRequest(http.MethodOptions, "/closed-question", http.NoBody)
			req.Header.Set("Origin", "chrome-extension://abc")
			req.Header.Set("Access-Control-Request-Headers", "content-type")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is answered without reaching the routes", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "chrome-extension://abc")
				So(w.Header().Get("Access-Control-Allow-Headers"), ShouldEqual, "content-type")
			})
		})

		Convey("When a normal request arrives", func() {
			w := do(h, http.MethodGet, "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

func TestWrapKind(t *testing.T) {
	Convey("WrapKind keeps both the kind and the cause", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("op", api.ErrBadRequest, cause)
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(errors.Is(api.WrapKind("op", api.ErrNotFound, nil), api.ErrNotFound), ShouldBeTrue)
	})
}
