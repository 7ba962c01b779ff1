package wire

import (
	"theater-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireShow(r chi.Router, showHandler *adaptor.ShowHandler) {
	// POST /api/shows - one-shot show provisioning from a venue layout
	r.Post("/api/shows", showHandler.ProvisionShow)

	// GET /api/shows - list shows
	r.Get("/api/shows", showHandler.GetShows)

	// GET /api/shows/{id} - show details
	r.Get("/api/shows/{id}", showHandler.GetShow)

	// GET /api/shows/{id}/seats - seat availability by external identifier
	r.Get("/api/shows/{id}/seats", showHandler.GetAvailability)
}
