package invites

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the invite endpoints. query and mutation wrap
// the read and state-changing routes respectively.
func (h *Handler) RegisterRoutes(r chi.Router, query, mutation func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(query)
		r.Get("/v1/invites", h.List)
		r.Get("/v1/invites/summary", h.Summary)
	})
	r.Group(func(r chi.Router) {
		r.Use(mutation)
		r.Post("/v1/invites/{id}/accept", h.Accept)
		r.Post("/v1/invites/{id}/reject", h.Reject)
		r.Post("/v1/invites/{id}/cancel", h.Cancel)
	})
}
