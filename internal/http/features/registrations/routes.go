package registrations

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the registration endpoints. query and mutation
// wrap the read and state-changing routes respectively.
func (h *Handler) RegisterRoutes(r chi.Router, query, mutation func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(query)
		r.Get("/v1/registrations/{id}", h.Roster)
		r.Get("/v1/registrations/{id}/events", h.Events)
	})
	r.Group(func(r chi.Router) {
		r.Use(mutation)
		r.Post("/v1/registrations", h.Create)
		r.Post("/v1/registrations/{id}/invites", h.Invite)
		r.Post("/v1/registrations/{id}/submit", h.Submit)
		r.Post("/v1/registrations/{id}/cancel", h.Cancel)
		r.Post("/v1/registrations/{id}/leave", h.Leave)
		r.Delete("/v1/registrations/{id}/members/{account}", h.RemoveMember)
	})
}
