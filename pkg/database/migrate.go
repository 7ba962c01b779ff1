package database

import (
	"context"
	"fmt"
)

// Schema bootstrap, run once at startup. All statements are idempotent.
//
// The unique constraints on seat_mappings are load-bearing: they enforce the
// one-to-one external-id <-> seat invariant at the storage layer so no code
// path can silently remap a seat.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS shows (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		venue_name TEXT NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id UUID PRIMARY KEY,
		show_id UUID NOT NULL REFERENCES shows(id),
		section TEXT NOT NULL,
		row_label TEXT NOT NULL,
		seat_number INT NOT NULL,
		price_pence INT NOT NULL,
		accessible BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'available'
			CHECK (status IN ('available', 'held', 'booked')),
		pos_x DOUBLE PRECISION NOT NULL DEFAULT 0,
		pos_y DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (show_id, section, row_label, seat_number)
	)`,
	`CREATE TABLE IF NOT EXISTS seat_mappings (
		id UUID PRIMARY KEY,
		show_id UUID NOT NULL REFERENCES shows(id),
		external_id TEXT NOT NULL,
		seat_id UUID NOT NULL REFERENCES seats(id),
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (show_id, external_id),
		UNIQUE (show_id, seat_id)
	)`,
	`CREATE TABLE IF NOT EXISTS holds (
		id UUID PRIMARY KEY,
		show_id UUID NOT NULL REFERENCES shows(id),
		session_token TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active'
			CHECK (status IN ('active', 'released', 'finalized')),
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hold_seats (
		hold_id UUID NOT NULL REFERENCES holds(id),
		seat_id UUID NOT NULL REFERENCES seats(id),
		PRIMARY KEY (hold_id, seat_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		show_id UUID NOT NULL REFERENCES shows(id),
		hold_id UUID NOT NULL REFERENCES holds(id),
		customer_ref TEXT NOT NULL,
		payment_ref TEXT NOT NULL,
		total_seats INT NOT NULL,
		total_pence INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'confirmed'
			CHECK (status IN ('confirmed', 'cancelled')),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS booking_seats (
		booking_id UUID NOT NULL REFERENCES bookings(id),
		seat_id UUID NOT NULL REFERENCES seats(id),
		PRIMARY KEY (booking_id, seat_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_seats_show_status ON seats (show_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_holds_expiry ON holds (status, expires_at)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db PgxIface) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
