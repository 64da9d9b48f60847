package api

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/assets"
	"github.com/starford/scribe/internal/scribeservice"
)

const maxUploadBytes = 50 << 20 // 50 MB

// AssetHandler serves and accepts archived asset files.
type AssetHandler struct {
	store *assets.Store
	svc   *scribeservice.Service
}

// NewAssetHandler creates a handler over the asset store.
func NewAssetHandler(store *assets.Store, svc *scribeservice.Service) *AssetHandler {
	return &AssetHandler{store: store, svc: svc}
}

// ServeFile handles GET /api/assets/{filename}.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.store.Path(filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// List handles GET /api/assets with an optional filter query.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: names})
}

// Upload handles POST /api/records/{id}/assets (multipart/form-data, field "file").
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := h.store.SaveReader(recordID, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	abs, err := h.store.Path(name)
	if err != nil {
		writeError(w, err)
		return
	}
	var size int64
	if info, statErr := os.Stat(abs); statErr == nil {
		size = info.Size()
	}

	writeJSON(w, http.StatusCreated, AssetUploadResponse{
		AssetFilename: name,
		Size:          size,
		URL:           "/api/assets/" + name,
	})
}

// Restore handles POST /api/assets/{filename}/restore.
func (h *AssetHandler) Restore(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	var req RestoreAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	dest, err := h.svc.RestoreAsset(r.Context(), filename, req.DestDir)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"restored": dest})
}
