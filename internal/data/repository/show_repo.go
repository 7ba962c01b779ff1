package repository

import (
	"context"
	"errors"
	"fmt"

	"theater-booking/internal/data/entity"
	"theater-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type ShowRepository interface {
	// Provision creates the show, its seats and its external-id mappings in
	// one transaction. The seed happens exactly once per show; a duplicate
	// external id aborts the whole transaction with MappingConflictError.
	Provision(ctx context.Context, show *entity.Show, seats []*entity.Seat, mappings []*entity.SeatMapping) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Show, error)
	Count(ctx context.Context) (int64, error)
}

type showRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowRepository(db database.PgxIface, log *zap.Logger) ShowRepository {
	return &showRepository{
		db:  db,
		log: log.With(zap.String("repository", "show")),
	}
}

func (r *showRepository) Provision(ctx context.Context, show *entity.Show, seats []*entity.Seat, mappings []*entity.SeatMapping) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin provision tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO shows (id, title, venue_name, starts_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		show.ID, show.Title, show.VenueName, show.StartsAt, show.CreatedAt, show.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert show",
			zap.Error(err),
			zap.String("show_id", show.ID.String()),
		)
		return fmt.Errorf("insert show %s: %w", show.ID.String(), err)
	}

	for _, seat := range seats {
		_, err = tx.Exec(ctx,
			`INSERT INTO seats (id, show_id, section, row_label, seat_number, price_pence, accessible, status, pos_x, pos_y, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			seat.ID, seat.ShowID, seat.Section, seat.RowLabel, seat.SeatNumber,
			seat.PricePence, seat.Accessible, seat.Status, seat.PosX, seat.PosY,
			seat.CreatedAt, seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to insert seat",
				zap.Error(err),
				zap.String("show_id", show.ID.String()),
				zap.String("seat_id", seat.ID.String()),
			)
			return fmt.Errorf("insert seat %s: %w", seat.ID.String(), err)
		}
	}

	for _, m := range mappings {
		_, err = tx.Exec(ctx,
			`INSERT INTO seat_mappings (id, show_id, external_id, seat_id, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.ShowID, m.ExternalID, m.SeatID, m.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return &entity.MappingConflictError{ShowID: m.ShowID, ExternalID: m.ExternalID}
			}
			r.log.Error("Failed to insert seat mapping",
				zap.Error(err),
				zap.String("show_id", show.ID.String()),
				zap.String("external_id", m.ExternalID),
			)
			return fmt.Errorf("insert seat mapping %s: %w", m.ExternalID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit provision tx: %w", err)
	}

	r.log.Info("Show provisioned",
		zap.String("show_id", show.ID.String()),
		zap.String("title", show.Title),
		zap.Int("seat_count", len(seats)),
	)
	return nil
}

func (r *showRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error) {
	query := `
		SELECT id, title, venue_name, starts_at, created_at, updated_at
		FROM shows
		WHERE id = $1
	`

	var show entity.Show
	err := r.db.QueryRow(ctx, query, id).Scan(
		&show.ID,
		&show.Title,
		&show.VenueName,
		&show.StartsAt,
		&show.CreatedAt,
		&show.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, entity.ErrShowNotFound
	}
	if err != nil {
		r.log.Error("Failed to find show by ID",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return nil, fmt.Errorf("find show by ID %s: %w", id.String(), err)
	}

	return &show, nil
}

func (r *showRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Show, error) {
	query := `
		SELECT id, title, venue_name, starts_at, created_at, updated_at
		FROM shows
		ORDER BY starts_at
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to list shows", zap.Error(err))
		return nil, fmt.Errorf("list shows: %w", err)
	}
	defer rows.Close()

	var shows []*entity.Show
	for rows.Next() {
		var show entity.Show
		err := rows.Scan(
			&show.ID,
			&show.Title,
			&show.VenueName,
			&show.StartsAt,
			&show.CreatedAt,
			&show.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan show row", zap.Error(err))
			return nil, fmt.Errorf("scan show row: %w", err)
		}
		shows = append(shows, &show)
	}

	return shows, nil
}

func (r *showRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM shows`).Scan(&count); err != nil {
		r.log.Error("Failed to count shows", zap.Error(err))
		return 0, fmt.Errorf("count shows: %w", err)
	}
	return count, nil
}
