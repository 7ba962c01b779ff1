package wire

import (
	"theater-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireHold(r chi.Router, holdHandler *adaptor.HoldHandler) {
	// POST /api/holds - claim seats for a checkout session
	r.Post("/api/holds", holdHandler.CreateHold)

	// GET /api/holds/{id} - hold status
	r.Get("/api/holds/{id}", holdHandler.GetHold)

	// DELETE /api/holds/{id} - release a hold (idempotent)
	r.Delete("/api/holds/{id}", holdHandler.ReleaseHold)
}
