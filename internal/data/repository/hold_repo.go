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

type HoldRepository interface {
	// Create acquires every seat in hold.SeatIDs atomically and records the
	// hold. The returned slice names the seats that blocked acquisition; a
	// non-empty slice means nothing was written — partial holds are never
	// visible, even transiently, because the whole operation is one
	// transaction that rolls back on any shortfall. Expired holds pinning
	// the requested seats are released first (lazy expiry).
	Create(ctx context.Context, hold *entity.Hold, now time.Time) ([]uuid.UUID, error)

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Hold, error)

	// Release frees the hold's seats and marks it released. Idempotent:
	// releasing a hold that is already released, finalized or unknown is a
	// no-op.
	Release(ctx context.Context, id uuid.UUID) error

	// ReleaseExpired is the sweep: it releases every active hold past its
	// expiry. Built entirely from conditional updates so concurrent sweeps
	// (or a sweep racing a finalize) cannot double-release.
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
	ReleaseExpiredByShow(ctx context.Context, showID uuid.UUID, now time.Time) (int, error)
}

type holdRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHoldRepository(db database.PgxIface, log *zap.Logger) HoldRepository {
	return &holdRepository{
		db:  db,
		log: log.With(zap.String("repository", "hold")),
	}
}

// freeSeatsTx flips the given holds' seats back to available. Conditional on
// status = 'held' so seats that have since been booked are untouched.
func freeSeatsTx(ctx context.Context, tx pgx.Tx, holdIDs []uuid.UUID) error {
	if len(holdIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`UPDATE seats SET status = 'available', updated_at = NOW()
		 WHERE status = 'held'
		   AND id IN (SELECT seat_id FROM hold_seats WHERE hold_id = ANY($1))`,
		holdIDs,
	)
	return err
}

// collectIDs drains a single-uuid-column result set.
func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *holdRepository) Create(ctx context.Context, hold *entity.Hold, now time.Time) ([]uuid.UUID, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin hold tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lazy expiry: free seats still pinned by holds whose TTL has passed,
	// so correctness never depends on the background sweep having run.
	expiredRows, err := tx.Query(ctx,
		`UPDATE holds SET status = 'released'
		 WHERE status = 'active' AND expires_at <= $1
		   AND id IN (SELECT hold_id FROM hold_seats WHERE seat_id = ANY($2))
		 RETURNING id`,
		now, hold.SeatIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("release expired holds: %w", err)
	}
	expiredIDs, err := collectIDs(expiredRows)
	if err != nil {
		return nil, fmt.Errorf("scan expired hold IDs: %w", err)
	}
	if err := freeSeatsTx(ctx, tx, expiredIDs); err != nil {
		return nil, fmt.Errorf("free expired hold seats: %w", err)
	}

	// One conditional UPDATE over the full seat set. The rows-affected
	// contract is what makes two racing holds resolve to exactly one winner
	// per seat.
	acquiredRows, err := tx.Query(ctx,
		`UPDATE seats SET status = 'held', updated_at = NOW()
		 WHERE show_id = $1 AND id = ANY($2) AND status = 'available'
		 RETURNING id`,
		hold.ShowID, hold.SeatIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire seats: %w", err)
	}
	acquiredIDs, err := collectIDs(acquiredRows)
	if err != nil {
		return nil, fmt.Errorf("scan acquired seat IDs: %w", err)
	}

	if len(acquiredIDs) != len(hold.SeatIDs) {
		acquired := make(map[uuid.UUID]bool, len(acquiredIDs))
		for _, id := range acquiredIDs {
			acquired[id] = true
		}
		var blocked []uuid.UUID
		for _, id := range hold.SeatIDs {
			if !acquired[id] {
				blocked = append(blocked, id)
			}
		}
		// Rollback via the deferred call; the partial acquisition is undone.
		return blocked, nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO holds (id, show_id, session_token, status, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		hold.ID, hold.ShowID, hold.SessionToken, hold.Status, hold.ExpiresAt, hold.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert hold",
			zap.Error(err),
			zap.String("hold_id", hold.ID.String()),
			zap.String("show_id", hold.ShowID.String()),
		)
		return nil, fmt.Errorf("insert hold %s: %w", hold.ID.String(), err)
	}

	for _, seatID := range hold.SeatIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO hold_seats (hold_id, seat_id) VALUES ($1, $2)`,
			hold.ID, seatID,
		)
		if err != nil {
			return nil, fmt.Errorf("insert hold seat %s: %w", seatID.String(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit hold tx: %w", err)
	}

	return nil, nil
}

func (r *holdRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hold, error) {
	var hold entity.Hold
	err := r.db.QueryRow(ctx,
		`SELECT id, show_id, session_token, status, expires_at, created_at
		 FROM holds WHERE id = $1`,
		id,
	).Scan(
		&hold.ID,
		&hold.ShowID,
		&hold.SessionToken,
		&hold.Status,
		&hold.ExpiresAt,
		&hold.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, entity.ErrHoldNotFound
	}
	if err != nil {
		r.log.Error("Failed to find hold by ID",
			zap.Error(err),
			zap.String("hold_id", id.String()),
		)
		return nil, fmt.Errorf("find hold %s: %w", id.String(), err)
	}

	seatRows, err := r.db.Query(ctx,
		`SELECT seat_id FROM hold_seats WHERE hold_id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("load hold seats for %s: %w", id.String(), err)
	}
	hold.SeatIDs, err = collectIDs(seatRows)
	if err != nil {
		return nil, fmt.Errorf("scan hold seats for %s: %w", id.String(), err)
	}

	return &hold, nil
}

func (r *holdRepository) Release(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin release tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`UPDATE holds SET status = 'released' WHERE id = $1 AND status = 'active'`,
		id,
	)
	if err != nil {
		r.log.Error("Failed to release hold",
			zap.Error(err),
			zap.String("hold_id", id.String()),
		)
		return fmt.Errorf("release hold %s: %w", id.String(), err)
	}

	// Already released, finalized or unknown: nothing to do.
	if result.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	if err := freeSeatsTx(ctx, tx, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("free seats of hold %s: %w", id.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit release tx: %w", err)
	}

	r.log.Info("Hold released", zap.String("hold_id", id.String()))
	return nil
}

func (r *holdRepository) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	return r.releaseExpired(ctx, now, uuid.Nil)
}

func (r *holdRepository) ReleaseExpiredByShow(ctx context.Context, showID uuid.UUID, now time.Time) (int, error) {
	return r.releaseExpired(ctx, now, showID)
}

func (r *holdRepository) releaseExpired(ctx context.Context, now time.Time, showID uuid.UUID) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin sweep tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE holds SET status = 'released' WHERE status = 'active' AND expires_at <= $1 RETURNING id`
	args := []any{now}
	if showID != uuid.Nil {
		query = `UPDATE holds SET status = 'released' WHERE status = 'active' AND expires_at <= $1 AND show_id = $2 RETURNING id`
		args = append(args, showID)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("expire holds: %w", err)
	}
	expiredIDs, err := collectIDs(rows)
	if err != nil {
		return 0, fmt.Errorf("scan expired hold IDs: %w", err)
	}

	if len(expiredIDs) == 0 {
		return 0, tx.Commit(ctx)
	}

	if err := freeSeatsTx(ctx, tx, expiredIDs); err != nil {
		return 0, fmt.Errorf("free expired hold seats: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit sweep tx: %w", err)
	}

	r.log.Info("Expired holds released", zap.Int("count", len(expiredIDs)))
	return len(expiredIDs), nil
}
