package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/formfill/internal/domain/model"
)

type historyResponse struct {
	Count   int                  `json:"count"`
	Records []model.AnswerRecord `json:"records"`
}

// HistoryHandler lists stored answers.
type HistoryHandler struct {
	backend Backend
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(b Backend) *HistoryHandler {
	return &HistoryHandler{backend: b}
}

// HandleList handles GET /qa-history?limit=N.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.qa_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("limit must be a non-negative integer")))
			return
		}
		limit = n
	}
	recs, err := h.backend.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if recs == nil {
		recs = []model.AnswerRecord{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Count: len(recs), Records: recs})
}
