package response

import "time"

type BookingResponse struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	ShowID      string    `json:"show_id"`
	CustomerRef string    `json:"customer_ref"`
	Seats       []string  `json:"seats"` // external identifiers
	TotalSeats  int       `json:"total_seats"`
	TotalPence  int       `json:"total_pence"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
