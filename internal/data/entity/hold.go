package entity

import (
	"time"

	"github.com/google/uuid"
)

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusReleased  HoldStatus = "released"
	HoldStatusFinalized HoldStatus = "finalized"
)

// Hold is a time-boxed exclusive claim on seats during checkout. A seat is
// referenced by at most one active hold at a time. Expiry is enforced
// lazily wherever a hold is read; the background sweep is an optimization.
type Hold struct {
	BaseSimple
	ShowID       uuid.UUID   `db:"show_id"`
	SessionToken string      `db:"session_token"`
	Status       HoldStatus  `db:"status"`
	ExpiresAt    time.Time   `db:"expires_at"`
	SeatIDs      []uuid.UUID `db:"-"` // from hold_seats
}

// Expired reports whether the hold's TTL has passed at the given instant.
func (h *Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Active reports whether the hold still guards its seats at the given
// instant.
func (h *Hold) Active(now time.Time) bool {
	return h.Status == HoldStatusActive && !h.Expired(now)
}
