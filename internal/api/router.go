package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/plate/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.ReplaceDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Editing. Each route takes the document path as the wildcard so that
	// sub-actions never collide with document paths containing slashes.
	r.Post("/commands/*", h.RunCommand)
	r.Post("/queries/*", h.RunQuery)
	r.Post("/transactions/*", h.ApplyTransaction)
	r.Post("/undo/*", h.Undo)
	r.Post("/redo/*", h.Redo)
	r.Put("/selection/*", h.SetSelection)

	// Search and backlinks.
	r.Get("/search", h.Search)
	r.Get("/backlinks", h.Backlinks)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
