// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/formfill/internal/backend"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/logger"
)

// Backend is the answer memory the handlers expose. Using an interface keeps
// the handler layer loosely coupled to the service implementation.
type Backend interface {
	Lookup(ctx context.Context, question string, intent model.Intent) (backend.ClosedAnswer, error)
	Remember(ctx context.Context, rec model.AnswerRecord) (backend.ClosedAnswer, error)
	OpenQuestion(ctx context.Context, req model.DraftRequest) (backend.OpenAnswer, error)
	Profile(ctx context.Context) (*model.Profile, error)
	ParseResume(ctx context.Context, text string) (model.Profile, error)
	History(ctx context.Context, limit int) ([]model.AnswerRecord, error)
}

// Server wires HTTP routes for the answer backend.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	questionHandler *QuestionHandler
	resumeHandler   *ResumeHandler
	historyHandler  *HistoryHandler

	logger logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets a custom logger for the Server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(b Backend, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.questionHandler = NewQuestionHandler(b, s.logger)
	s.resumeHandler = NewResumeHandler(b, s.logger)
	s.historyHandler = NewHistoryHandler(b)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleStatus, "health"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/closed-question", MetricsMiddleware(s.questionHandler.HandleClosed, "closed_question"))
	mux.HandleFunc("/open-question", MetricsMiddleware(s.questionHandler.HandleOpen, "open_question"))
	mux.HandleFunc("/resume", MetricsMiddleware(s.resumeHandler.HandleGet, "resume"))
	mux.HandleFunc("/parse-resume", MetricsMiddleware(s.resumeHandler.HandleParse, "parse_resume"))
	mux.HandleFunc("/qa-history", MetricsMiddleware(s.historyHandler.HandleList, "qa_history"))
}

// Handler returns mux wrapped with the cross-origin middleware, so browser
// extensions on any origin can call the API.
func Handler(mux *http.ServeMux) http.Handler {
	return CORSMiddleware(mux)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
