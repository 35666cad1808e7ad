package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/okian/formfill/internal/backend"
	"github.com/okian/formfill/internal/domain/model"
	"github.com/okian/formfill/pkg/logger"
)

const maxResumeBytes = 5 << 20

type parseResumeResponse struct {
	Cached   bool          `json:"cached"`
	Filename string        `json:"filename,omitempty"`
	Resume   model.Profile `json:"resume"`
}

// ResumeHandler serves the stored profile and résumé parsing.
type ResumeHandler struct {
	backend Backend
	logger  logger.Logger
}

// NewResumeHandler creates a new resume handler.
func NewResumeHandler(b Backend, l logger.Logger) *ResumeHandler {
	return &ResumeHandler{backend: b, logger: l}
}

// HandleGet handles GET /resume.
func (h *ResumeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_resume"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, err := h.backend.Profile(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found",
			WrapKind(op, ErrNotFound, errors.New("no resume cached, upload via /parse-resume first")))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleParse handles POST /parse-resume. The body is either a multipart
// form with a "file" part or the raw résumé text.
func (h *ResumeHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	const op = "api.parse_resume"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes)

	text, filename, err := readResume(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrPayloadTooLong, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	p, err := h.backend.ParseResume(r.Context(), text)
	if err != nil {
		if errors.Is(err, backend.ErrEmptyResume) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		h.logger.Error(r.Context(), "parse resume failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, parseResumeResponse{Cached: true, Filename: filename, Resume: p})
}

func readResume(r *http.Request) (text, filename string, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return "", "", err
		}
		return strings.ToValidUTF8(string(raw), ""), "", nil
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return "", "", err
	}
	return strings.ToValidUTF8(string(raw), ""), hdr.Filename, nil
}
