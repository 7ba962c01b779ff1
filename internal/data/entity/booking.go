package entity

import "github.com/google/uuid"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is the permanent record of seats sold for a show. Created only by
// the finalize path; never mutated afterwards except Status for
// cancellation/refund flows.
type Booking struct {
	BaseSimple
	Reference   string        `db:"reference"`
	ShowID      uuid.UUID     `db:"show_id"`
	HoldID      uuid.UUID     `db:"hold_id"`
	CustomerRef string        `db:"customer_ref"`
	PaymentRef  string        `db:"payment_ref"`
	TotalSeats  int           `db:"total_seats"`
	TotalPence  int           `db:"total_pence"`
	Status      BookingStatus `db:"status"`
	SeatIDs     []uuid.UUID   `db:"-"` // from booking_seats
}
