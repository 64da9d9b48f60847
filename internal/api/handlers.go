package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/scribeservice"
	"github.com/starford/scribe/internal/validator"
)

// Handler holds API route handlers.
type Handler struct {
	svc *scribeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *scribeservice.Service) *Handler {
	return &Handler{svc: svc}
}

// errStatus maps sentinel error kinds to HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyExists), errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrMalformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}

// AppendRecord handles POST /api/records.
func (h *Handler) AppendRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req AppendRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	in := journal.AppendInput{
		Time:    req.Time,
		Title:   req.Title,
		Body:    req.Body,
		Files:   req.Files,
		Related: req.Related,
		Status:  req.Status,
	}
	for _, item := range req.Archive {
		in.Archive = append(in.Archive, journal.ArchiveRequest{
			Path:        item.Path,
			Description: item.Description,
		})
	}

	rec, err := h.svc.Append(r.Context(), req.Date, in)
	if err != nil {
		if rec != nil {
			// Record landed but a follow-up step failed: surface the id so
			// the caller can recover with delete-latest or rearchive.
			writeJSON(w, errStatus(err), map[string]any{
				"error": err.Error(),
				"id":    rec.ID,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// LastRecord handles GET /api/records/last.
func (h *Handler) LastRecord(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	id, title, err := h.svc.Last(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := LastRecordResponse{ID: id}
	if r.URL.Query().Get("with_title") == "true" {
		resp.Title = title
	}
	writeJSON(w, http.StatusOK, resp)
}

// ShowLatest handles GET /api/records/latest.
func (h *Handler) ShowLatest(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.ShowLatest(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LatestBlockResponse{ID: b.ID, Content: b.Raw})
}

// DeleteLatest handles DELETE /api/records/latest.
func (h *Handler) DeleteLatest(w http.ResponseWriter, r *http.Request) {
	id, deleted, err := h.svc.DeleteLatest(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, DeleteLatestResponse{ID: id, DeletedAssets: deleted})
}

// ReplaceLatest handles PUT /api/records/latest.
func (h *Handler) ReplaceLatest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ReplaceLatestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id, err := h.svc.ReplaceLatest(r.Context(), r.URL.Query().Get("date"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Rearchive handles POST /api/records/latest/rearchive.
func (h *Handler) Rearchive(w http.ResponseWriter, r *http.Request) {
	var req RearchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	name, err := h.svc.Rearchive(r.Context(), r.URL.Query().Get("date"), req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"asset_filename": name})
}

// Unarchive handles POST /api/records/latest/unarchive.
func (h *Handler) Unarchive(w http.ResponseWriter, r *http.Request) {
	id, deleted, err := h.svc.Unarchive(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, DeleteLatestResponse{ID: id, DeletedAssets: deleted})
}

// RelatedTo handles GET /api/records/{id}/related.
func (h *Handler) RelatedTo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sources, err := h.svc.RelatedTo(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"related": sources})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{ID: hit.ID, Title: hit.Title, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Validate handles GET /api/validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	violations, count, err := h.svc.Validate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if violations == nil {
		violations = []validator.Violation{}
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Violations: violations, Records: count})
}
