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

// SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

type SeatMappingRepository interface {
	// Register records one external-id -> seat mapping. Registering the same
	// pair twice is a no-op; registering an external id that already points
	// at a different seat fails with MappingConflictError. The first
	// registration always stays authoritative.
	Register(ctx context.Context, m *entity.SeatMapping) error

	Resolve(ctx context.Context, showID uuid.UUID, externalID string) (uuid.UUID, error)
	ResolveBatch(ctx context.Context, showID uuid.UUID, externalIDs []string) (map[string]uuid.UUID, error)

	// ExternalIDsByShow returns the reverse mapping for a show so callers
	// can present internal seats under their client-facing identifiers.
	ExternalIDsByShow(ctx context.Context, showID uuid.UUID) (map[uuid.UUID]string, error)
}

type seatMappingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatMappingRepository(db database.PgxIface, log *zap.Logger) SeatMappingRepository {
	return &seatMappingRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat_mapping")),
	}
}

func (r *seatMappingRepository) Register(ctx context.Context, m *entity.SeatMapping) error {
	// ON CONFLICT DO NOTHING keeps the insert race-free; zero rows affected
	// means a mapping already exists and we go look at what it points to.
	query := `
		INSERT INTO seat_mappings (id, show_id, external_id, seat_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (show_id, external_id) DO NOTHING
	`

	result, err := r.db.Exec(ctx, query, m.ID, m.ShowID, m.ExternalID, m.SeatID, m.CreatedAt)
	if err != nil {
		r.log.Error("Failed to register seat mapping",
			zap.Error(err),
			zap.String("show_id", m.ShowID.String()),
			zap.String("external_id", m.ExternalID),
		)
		return fmt.Errorf("register mapping %s: %w", m.ExternalID, err)
	}

	if result.RowsAffected() == 1 {
		return nil
	}

	existing, err := r.Resolve(ctx, m.ShowID, m.ExternalID)
	if err != nil {
		return fmt.Errorf("check existing mapping %s: %w", m.ExternalID, err)
	}
	if existing == m.SeatID {
		return nil // idempotent re-registration
	}

	r.log.Warn("Seat mapping conflict",
		zap.String("show_id", m.ShowID.String()),
		zap.String("external_id", m.ExternalID),
		zap.String("existing_seat_id", existing.String()),
		zap.String("requested_seat_id", m.SeatID.String()),
	)
	return &entity.MappingConflictError{ShowID: m.ShowID, ExternalID: m.ExternalID}
}

func (r *seatMappingRepository) Resolve(ctx context.Context, showID uuid.UUID, externalID string) (uuid.UUID, error) {
	var seatID uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT seat_id FROM seat_mappings WHERE show_id = $1 AND external_id = $2`,
		showID, externalID,
	).Scan(&seatID)

	if err == pgx.ErrNoRows {
		return uuid.Nil, fmt.Errorf("resolve %q for show %s: %w", externalID, showID.String(), entity.ErrMappingNotFound)
	}
	if err != nil {
		r.log.Error("Failed to resolve external seat ID",
			zap.Error(err),
			zap.String("show_id", showID.String()),
			zap.String("external_id", externalID),
		)
		return uuid.Nil, fmt.Errorf("resolve %q: %w", externalID, err)
	}

	return seatID, nil
}

func (r *seatMappingRepository) ResolveBatch(ctx context.Context, showID uuid.UUID, externalIDs []string) (map[string]uuid.UUID, error) {
	if len(externalIDs) == 0 {
		return map[string]uuid.UUID{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT external_id, seat_id FROM seat_mappings WHERE show_id = $1 AND external_id = ANY($2)`,
		showID, externalIDs,
	)
	if err != nil {
		r.log.Error("Failed to resolve external seat IDs",
			zap.Error(err),
			zap.String("show_id", showID.String()),
			zap.Int("count", len(externalIDs)),
		)
		return nil, fmt.Errorf("resolve external seat IDs: %w", err)
	}
	defer rows.Close()

	resolved := make(map[string]uuid.UUID, len(externalIDs))
	for rows.Next() {
		var externalID string
		var seatID uuid.UUID
		if err := rows.Scan(&externalID, &seatID); err != nil {
			r.log.Error("Failed to scan seat mapping row", zap.Error(err))
			return nil, fmt.Errorf("scan seat mapping row: %w", err)
		}
		resolved[externalID] = seatID
	}

	for _, externalID := range externalIDs {
		if _, ok := resolved[externalID]; !ok {
			return nil, fmt.Errorf("resolve %q for show %s: %w", externalID, showID.String(), entity.ErrMappingNotFound)
		}
	}

	return resolved, nil
}

func (r *seatMappingRepository) ExternalIDsByShow(ctx context.Context, showID uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT seat_id, external_id FROM seat_mappings WHERE show_id = $1`,
		showID,
	)
	if err != nil {
		r.log.Error("Failed to load seat mappings for show",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return nil, fmt.Errorf("load seat mappings for show %s: %w", showID.String(), err)
	}
	defer rows.Close()

	mappings := make(map[uuid.UUID]string)
	for rows.Next() {
		var seatID uuid.UUID
		var externalID string
		if err := rows.Scan(&seatID, &externalID); err != nil {
			r.log.Error("Failed to scan seat mapping row", zap.Error(err))
			return nil, fmt.Errorf("scan seat mapping row: %w", err)
		}
		mappings[seatID] = externalID
	}

	return mappings, nil
}
