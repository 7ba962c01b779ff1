package entity

import "github.com/google/uuid"

// SeatMapping ties a client-facing seat identifier (e.g. "premium-3-7") to
// the internal seat row for one show. Exactly one-to-one per show and
// immutable once registered; duplicate registrations are a conflict, never
// an overwrite.
type SeatMapping struct {
	BaseSimple
	ShowID     uuid.UUID `db:"show_id"`
	ExternalID string    `db:"external_id"`
	SeatID     uuid.UUID `db:"seat_id"`
}
