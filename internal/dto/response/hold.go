package response

import "time"

type HoldResponse struct {
	ID        string    `json:"id"`
	ShowID    string    `json:"show_id"`
	Seats     []string  `json:"seats"` // external identifiers
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
