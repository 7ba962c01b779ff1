package entity

import "time"

// Show is one scheduled performance at a venue. Seat identity and
// availability are always scoped to a single show.
type Show struct {
	BaseNoDelete
	Title     string    `db:"title"`
	VenueName string    `db:"venue_name"`
	StartsAt  time.Time `db:"starts_at"`
}
