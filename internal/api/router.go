package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/assets"
	"github.com/starford/scribe/internal/scribeservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *scribeservice.Service, store *assets.Store, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAssetHandler(store, svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Records.
	r.Post("/records", h.AppendRecord)
	r.Get("/records/last", h.LastRecord)
	r.Get("/records/latest", h.ShowLatest)
	r.Put("/records/latest", h.ReplaceLatest)
	r.Delete("/records/latest", h.DeleteLatest)
	r.Post("/records/latest/rearchive", h.Rearchive)
	r.Post("/records/latest/unarchive", h.Unarchive)
	r.Get("/records/{id}/related", h.RelatedTo)
	r.Post("/records/{id}/assets", ah.Upload)

	// Search and integrity.
	r.Get("/search", h.Search)
	r.Get("/validate", h.Validate)

	// Assets.
	r.Get("/assets", ah.List)
	r.Get("/assets/{filename}", ah.ServeFile)
	r.Post("/assets/{filename}/restore", ah.Restore)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
