package entity

import "github.com/google/uuid"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusHeld      SeatStatus = "held"
	SeatStatusBooked    SeatStatus = "booked"
)

// Seat is one bookable position for one show. Status only moves through
// available -> held -> booked, or held -> available on release/expiry.
// Nothing mutates Status except the conditional-update primitive in the
// seat repository.
type Seat struct {
	BaseNoDelete
	ShowID     uuid.UUID  `db:"show_id"`
	Section    string     `db:"section"`     // premium, stalls, circle, etc.
	RowLabel   string     `db:"row_label"`   // A, B, C, etc.
	SeatNumber int        `db:"seat_number"` // 1, 2, 3, etc. within the row
	PricePence int        `db:"price_pence"`
	Accessible bool       `db:"accessible"`
	Status     SeatStatus `db:"status"`
	PosX       float64    `db:"pos_x"` // presentation only
	PosY       float64    `db:"pos_y"`
}
