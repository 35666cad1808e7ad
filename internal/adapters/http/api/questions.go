package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/formfill/internal/backend"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/logger"
)

const maxQuestionBody = 1 << 20

// closedQuestionRequest mirrors the OpenAPI schema for POST /closed-question.
type closedQuestionRequest struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Intent   string   `json:"intent,omitempty"`
}

func (q closedQuestionRequest) validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("missing question")
	}
	return nil
}

// QuestionHandler serves closed-question lookups and writes and open-question drafts.
type QuestionHandler struct {
	backend Backend
	logger  logger.Logger
}

// NewQuestionHandler creates a new question handler.
func NewQuestionHandler(b Backend, l logger.Logger) *QuestionHandler {
	return &QuestionHandler{backend: b, logger: l}
}

// HandleClosed handles POST /closed-question. A request without an answer
// is a lookup; one with an answer stores it.
func (h *QuestionHandler) HandleClosed(w http.ResponseWriter, r *http.Request) {
	const op = "api.closed_question"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req closedQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	intent := model.Intent(strings.TrimSpace(req.Intent))
	var (
		out backend.ClosedAnswer
		err error
	)
	if strings.TrimSpace(req.Answer) != "" {
		out, err = h.backend.Remember(r.Context(), model.AnswerRecord{
			Question: req.Question,
			Answer:   req.Answer,
			Choices:  req.Choices,
			Intent:   intent,
		})
	} else {
		out, err = h.backend.Lookup(r.Context(), req.Question, intent)
	}
	if err != nil {
		if errors.Is(err, backend.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		h.logger.Error(r.Context(), "closed question failed", logger.String("question", req.Question), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleOpen handles POST /open-question.
func (h *QuestionHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_question"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req model.DraftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.backend.OpenQuestion(r.Context(), req)
	if err != nil {
		if errors.Is(err, backend.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxQuestionBody)
	return json.NewDecoder(r.Body).Decode(v)
}
