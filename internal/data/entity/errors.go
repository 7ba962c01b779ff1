package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors shared across the repository and usecase layers. Handlers
// map these to HTTP statuses with errors.Is / errors.As; nothing below the
// adaptor layer formats user-facing messages.
var (
	ErrShowNotFound    = errors.New("show not found")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrMappingNotFound = errors.New("seat mapping not found")
	ErrHoldNotFound    = errors.New("hold not found")
	ErrBookingNotFound = errors.New("booking not found")

	// ErrHoldExpired: finalize attempted after the hold's TTL, or against a
	// hold that was already released. Recoverable; the customer reselects.
	ErrHoldExpired = errors.New("hold expired")

	// ErrHoldFinalized: the hold was already converted into a booking. A
	// second finalize must fail here rather than double-book.
	ErrHoldFinalized = errors.New("hold already finalized")

	// ErrInternalConsistency: a held seat refused the held -> booked
	// transition during finalize. Indicates a sweep/TTL bug or lost update;
	// logged with full context and never retried.
	ErrInternalConsistency = errors.New("seat state inconsistent during finalize")
)

// SeatUnavailableError reports which requested seats could not be held.
// This is an expected outcome under contention, not a fault; callers must
// re-fetch availability rather than retry.
type SeatUnavailableError struct {
	Seats []string // external seat identifiers
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

// MappingConflictError reports an attempt to register an external seat
// identifier that already maps to a different seat. The first registration
// stays authoritative; provisioning must halt, never overwrite.
type MappingConflictError struct {
	ShowID     uuid.UUID
	ExternalID string
}

func (e *MappingConflictError) Error() string {
	return fmt.Sprintf("external seat id %q already registered for show %s", e.ExternalID, e.ShowID)
}
