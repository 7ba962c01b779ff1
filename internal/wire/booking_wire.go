package wire

import (
	"theater-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler) {
	// POST /api/bookings - finalize a hold after payment confirmation
	r.Post("/api/bookings", bookingHandler.Finalize)

	// GET /api/bookings/{reference} - booking lookup by reference code
	r.Get("/api/bookings/{reference}", bookingHandler.GetBookingByReference)
}
