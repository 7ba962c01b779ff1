package repository

import (
	"context"
	"fmt"

	"theater-booking/internal/data/entity"
	"theater-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SeatRepository interface {
	FindByID(ctx context.Context, showID, seatID uuid.UUID) (*entity.Seat, error)
	FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.Seat, error)
	FindByIDs(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Seat, error)

	GetStatus(ctx context.Context, showID, seatID uuid.UUID) (entity.SeatStatus, error)

	// TryTransition is the single atomic status primitive: one conditional
	// UPDATE whose rows-affected count decides the outcome. false means the
	// seat was not in the expected state — normal contention, not an error.
	// Every status mutation in the system goes through this statement shape;
	// a read-then-write pair would reopen the double-booking race.
	TryTransition(ctx context.Context, showID, seatID uuid.UUID, from, to entity.SeatStatus) (bool, error)
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, show_id, section, row_label, seat_number, price_pence, accessible, status, pos_x, pos_y, created_at, updated_at`

func scanSeat(row pgx.Row) (*entity.Seat, error) {
	var seat entity.Seat
	err := row.Scan(
		&seat.ID,
		&seat.ShowID,
		&seat.Section,
		&seat.RowLabel,
		&seat.SeatNumber,
		&seat.PricePence,
		&seat.Accessible,
		&seat.Status,
		&seat.PosX,
		&seat.PosY,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepository) FindByID(ctx context.Context, showID, seatID uuid.UUID) (*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE show_id = $1 AND id = $2`

	seat, err := scanSeat(r.db.QueryRow(ctx, query, showID, seatID))
	if err == pgx.ErrNoRows {
		return nil, entity.ErrSeatNotFound
	}
	if err != nil {
		r.log.Error("Failed to find seat by ID",
			zap.Error(err),
			zap.String("show_id", showID.String()),
			zap.String("seat_id", seatID.String()),
		)
		return nil, fmt.Errorf("find seat %s: %w", seatID.String(), err)
	}

	return seat, nil
}

func (r *seatRepository) FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE show_id = $1 ORDER BY section, row_label, seat_number`

	rows, err := r.db.Query(ctx, query, showID)
	if err != nil {
		r.log.Error("Failed to find seats by show ID",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return nil, fmt.Errorf("find seats for show %s: %w", showID.String(), err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, seat)
	}

	return seats, nil
}

func (r *seatRepository) FindByIDs(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Seat, error) {
	if len(seatIDs) == 0 {
		return []*entity.Seat{}, nil
	}

	query := `SELECT ` + seatColumns + ` FROM seats WHERE show_id = $1 AND id = ANY($2) ORDER BY section, row_label, seat_number`

	rows, err := r.db.Query(ctx, query, showID, seatIDs)
	if err != nil {
		r.log.Error("Failed to find seats by IDs",
			zap.Error(err),
			zap.String("show_id", showID.String()),
			zap.Int("seat_count", len(seatIDs)),
		)
		return nil, fmt.Errorf("find seats for show %s: %w", showID.String(), err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, seat)
	}

	return seats, nil
}

func (r *seatRepository) GetStatus(ctx context.Context, showID, seatID uuid.UUID) (entity.SeatStatus, error) {
	var status entity.SeatStatus
	err := r.db.QueryRow(ctx,
		`SELECT status FROM seats WHERE show_id = $1 AND id = $2`,
		showID, seatID,
	).Scan(&status)

	if err == pgx.ErrNoRows {
		return "", entity.ErrSeatNotFound
	}
	if err != nil {
		r.log.Error("Failed to get seat status",
			zap.Error(err),
			zap.String("show_id", showID.String()),
			zap.String("seat_id", seatID.String()),
		)
		return "", fmt.Errorf("get status of seat %s: %w", seatID.String(), err)
	}

	return status, nil
}

func (r *seatRepository) TryTransition(ctx context.Context, showID, seatID uuid.UUID, from, to entity.SeatStatus) (bool, error) {
	query := `UPDATE seats SET status = $4, updated_at = NOW() WHERE show_id = $1 AND id = $2 AND status = $3`

	result, err := r.db.Exec(ctx, query, showID, seatID, from, to)
	if err != nil {
		r.log.Error("Failed to transition seat status",
			zap.Error(err),
			zap.String("show_id", showID.String()),
			zap.String("seat_id", seatID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("transition seat %s %s->%s: %w", seatID.String(), from, to, err)
	}

	return result.RowsAffected() == 1, nil
}
