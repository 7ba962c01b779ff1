package repository

import (
	"context"
	"fmt"
	"time"

	"theater-booking/internal/data/entity"
	"theater-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	// Finalize converts the hold named by booking.HoldID into a permanent
	// booking. The hold row is locked for the duration so a finalize racing
	// a sweep or a second finalize serializes; hold expiry is re-checked
	// under the lock. Seats transition held -> booked and the booking rows
	// are written in the same transaction — partial success is impossible.
	Finalize(ctx context.Context, booking *entity.Booking, now time.Time) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReference(ctx context.Context, reference string) (*entity.Booking, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) Finalize(ctx context.Context, booking *entity.Booking, now time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status entity.HoldStatus
	var expiresAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT status, expires_at FROM holds WHERE id = $1 FOR UPDATE`,
		booking.HoldID,
	).Scan(&status, &expiresAt)

	if err == pgx.ErrNoRows {
		return entity.ErrHoldNotFound
	}
	if err != nil {
		return fmt.Errorf("lock hold %s: %w", booking.HoldID.String(), err)
	}

	switch {
	case status == entity.HoldStatusFinalized:
		return entity.ErrHoldFinalized
	case status == entity.HoldStatusReleased:
		// Released and expired holds are indistinguishable to the caller.
		return entity.ErrHoldExpired
	case !now.Before(expiresAt):
		// Lazy expiry under the lock: free the seats, then report expiry.
		if _, err := tx.Exec(ctx,
			`UPDATE holds SET status = 'released' WHERE id = $1`,
			booking.HoldID,
		); err != nil {
			return fmt.Errorf("expire hold %s: %w", booking.HoldID.String(), err)
		}
		if err := freeSeatsTx(ctx, tx, []uuid.UUID{booking.HoldID}); err != nil {
			return fmt.Errorf("free seats of expired hold %s: %w", booking.HoldID.String(), err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit expiry of hold %s: %w", booking.HoldID.String(), err)
		}
		return entity.ErrHoldExpired
	}

	result, err := tx.Exec(ctx,
		`UPDATE seats SET status = 'booked', updated_at = NOW()
		 WHERE show_id = $1 AND id = ANY($2) AND status = 'held'`,
		booking.ShowID, booking.SeatIDs,
	)
	if err != nil {
		return fmt.Errorf("book seats for hold %s: %w", booking.HoldID.String(), err)
	}
	if int(result.RowsAffected()) != len(booking.SeatIDs) {
		// A valid, locked hold must own every seat in 'held' state. Anything
		// else is a lost update or a sweep bug; abort loudly, never retry.
		r.log.Error("Seat state inconsistent during finalize",
			zap.String("hold_id", booking.HoldID.String()),
			zap.String("show_id", booking.ShowID.String()),
			zap.Int("expected", len(booking.SeatIDs)),
			zap.Int64("transitioned", result.RowsAffected()),
		)
		return entity.ErrInternalConsistency
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (id, reference, show_id, hold_id, customer_ref, payment_ref, total_seats, total_pence, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		booking.ID, booking.Reference, booking.ShowID, booking.HoldID,
		booking.CustomerRef, booking.PaymentRef, booking.TotalSeats,
		booking.TotalPence, booking.Status, booking.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("reference", booking.Reference),
		)
		return fmt.Errorf("insert booking %s: %w", booking.Reference, err)
	}

	for _, seatID := range booking.SeatIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO booking_seats (booking_id, seat_id) VALUES ($1, $2)`,
			booking.ID, seatID,
		)
		if err != nil {
			return fmt.Errorf("insert booking seat %s: %w", seatID.String(), err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE holds SET status = 'finalized' WHERE id = $1`,
		booking.HoldID,
	)
	if err != nil {
		return fmt.Errorf("finalize hold %s: %w", booking.HoldID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit finalize tx: %w", err)
	}

	return nil
}

const bookingColumns = `id, reference, show_id, hold_id, customer_ref, payment_ref, total_seats, total_pence, status, created_at`

func (r *bookingRepository) findOne(ctx context.Context, query string, arg any) (*entity.Booking, error) {
	var booking entity.Booking
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&booking.ID,
		&booking.Reference,
		&booking.ShowID,
		&booking.HoldID,
		&booking.CustomerRef,
		&booking.PaymentRef,
		&booking.TotalSeats,
		&booking.TotalPence,
		&booking.Status,
		&booking.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	seatRows, err := r.db.Query(ctx,
		`SELECT seat_id FROM booking_seats WHERE booking_id = $1`,
		booking.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("load booking seats: %w", err)
	}
	booking.SeatIDs, err = collectIDs(seatRows)
	if err != nil {
		return nil, fmt.Errorf("scan booking seats: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil && err != entity.ErrBookingNotFound {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking %s: %w", id.String(), err)
	}
	return booking, err
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	booking, err := r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, reference)
	if err != nil && err != entity.ErrBookingNotFound {
		r.log.Error("Failed to find booking by reference",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find booking %s: %w", reference, err)
	}
	return booking, err
}
