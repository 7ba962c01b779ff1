package response

import "time"

type ShowResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	VenueName string    `json:"venue_name"`
	StartsAt  time.Time `json:"starts_at"`
	SeatCount int       `json:"seat_count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SeatResponse presents one seat under its external identifier.
type SeatResponse struct {
	Seat       string  `json:"seat"` // external identifier
	Section    string  `json:"section"`
	Row        string  `json:"row"`
	Number     int     `json:"number"`
	PricePence int     `json:"price_pence"`
	Accessible bool    `json:"accessible"`
	Status     string  `json:"status"`
	PosX       float64 `json:"pos_x"`
	PosY       float64 `json:"pos_y"`
}

type ShowSeatsResponse struct {
	ShowID string         `json:"show_id"`
	Seats  []SeatResponse `json:"seats"`
}
