package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"theater-booking/internal/data/entity"
	"theater-booking/internal/data/repository"
	"theater-booking/internal/dto/request"
	"theater-booking/internal/dto/response"
	"theater-booking/pkg/cache"
	"theater-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HoldService interface {
	// CreateHold grants a time-boxed exclusive claim on the requested seats.
	// All-or-nothing: if any seat is taken the whole request fails with
	// SeatUnavailableError naming the seats, and nothing is held.
	CreateHold(ctx context.Context, req *request.CreateHoldRequest) (*response.HoldResponse, error)

	GetHold(ctx context.Context, holdID string) (*response.HoldResponse, error)

	// ReleaseHold frees the hold's seats. Idempotent.
	ReleaseHold(ctx context.Context, holdID string) error

	// SweepExpired releases every hold past its TTL. Called from a
	// background ticker; purely an optimization over lazy expiry.
	SweepExpired(ctx context.Context) (int, error)
}

type holdService struct {
	repo  *repository.Repository
	cache *cache.Service
	log   *zap.Logger
	ttl   time.Duration
	now   func() time.Time
}

func NewHoldService(repo *repository.Repository, config *utils.Config, cacheSvc *cache.Service, log *zap.Logger) HoldService {
	ttl := time.Duration(config.Hold.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &holdService{
		repo:  repo,
		cache: cacheSvc,
		log:   log.With(zap.String("service", "hold")),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *holdService) CreateHold(ctx context.Context, req *request.CreateHoldRequest) (*response.HoldResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create hold validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	showID, err := uuid.Parse(req.ShowID)
	if err != nil {
		return nil, fmt.Errorf("invalid show ID format %s: %w", req.ShowID, err)
	}

	if _, err := s.repo.Show.FindByID(ctx, showID); err != nil {
		return nil, fmt.Errorf("get show %s: %w", req.ShowID, err)
	}

	// Dedupe so a repeated seat in the request cannot skew the
	// all-or-nothing count in the acquisition step.
	seen := make(map[string]bool, len(req.Seats))
	externalIDs := make([]string, 0, len(req.Seats))
	for _, ext := range req.Seats {
		if !seen[ext] {
			seen[ext] = true
			externalIDs = append(externalIDs, ext)
		}
	}

	resolved, err := s.repo.SeatMapping.ResolveBatch(ctx, showID, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve seats: %w", err)
	}

	seatIDs := make([]uuid.UUID, 0, len(externalIDs))
	internalToExternal := make(map[uuid.UUID]string, len(externalIDs))
	for _, ext := range externalIDs {
		seatID := resolved[ext]
		seatIDs = append(seatIDs, seatID)
		internalToExternal[seatID] = ext
	}

	ttl := s.ttl
	if req.TTLSeconds > 0 {
		requested := time.Duration(req.TTLSeconds) * time.Second
		if requested < ttl {
			ttl = requested
		}
	}

	now := s.now()
	hold := &entity.Hold{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		ShowID:       showID,
		SessionToken: req.SessionToken,
		Status:       entity.HoldStatusActive,
		ExpiresAt:    now.Add(ttl),
		SeatIDs:      seatIDs,
	}

	blocked, err := s.repo.Hold.Create(ctx, hold, now)
	if err != nil {
		s.log.Error("Failed to create hold",
			zap.Error(err),
			zap.String("show_id", req.ShowID),
			zap.Int("seat_count", len(seatIDs)),
		)
		return nil, fmt.Errorf("create hold: %w", err)
	}
	if len(blocked) > 0 {
		unavailable := make([]string, 0, len(blocked))
		for _, seatID := range blocked {
			unavailable = append(unavailable, internalToExternal[seatID])
		}
		sort.Strings(unavailable)
		s.log.Info("Hold rejected, seats unavailable",
			zap.String("show_id", req.ShowID),
			zap.Strings("seats", unavailable),
		)
		return nil, &entity.SeatUnavailableError{Seats: unavailable}
	}

	if err := s.cache.Delete(ctx, availabilityCacheKey(showID)); err != nil {
		s.log.Warn("Availability cache invalidation failed", zap.Error(err))
	}

	s.log.Info("Hold created",
		zap.String("hold_id", hold.ID.String()),
		zap.String("show_id", req.ShowID),
		zap.Int("seat_count", len(seatIDs)),
		zap.Time("expires_at", hold.ExpiresAt),
	)

	return s.buildHoldResponse(hold, externalIDs), nil
}

func (s *holdService) GetHold(ctx context.Context, holdID string) (*response.HoldResponse, error) {
	id, err := uuid.Parse(holdID)
	if err != nil {
		return nil, fmt.Errorf("invalid hold ID format %s: %w", holdID, err)
	}

	hold, err := s.repo.Hold.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get hold %s: %w", holdID, err)
	}

	// Lazy expiry: an expired-but-unswept hold is reported as released.
	if hold.Status == entity.HoldStatusActive && hold.Expired(s.now()) {
		hold.Status = entity.HoldStatusReleased
	}

	externalIDs, err := s.externalSeatIDs(ctx, hold.ShowID, hold.SeatIDs)
	if err != nil {
		return nil, err
	}

	return s.buildHoldResponse(hold, externalIDs), nil
}

func (s *holdService) ReleaseHold(ctx context.Context, holdID string) error {
	id, err := uuid.Parse(holdID)
	if err != nil {
		return fmt.Errorf("invalid hold ID format %s: %w", holdID, err)
	}

	hold, err := s.repo.Hold.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get hold %s: %w", holdID, err)
	}

	// A finalized hold backs a booking; releasing it would orphan sold
	// seats. Released and expired holds stay a no-op.
	if hold.Status == entity.HoldStatusFinalized {
		return entity.ErrHoldFinalized
	}

	if err := s.repo.Hold.Release(ctx, id); err != nil {
		s.log.Error("Failed to release hold",
			zap.Error(err),
			zap.String("hold_id", holdID),
		)
		return fmt.Errorf("release hold %s: %w", holdID, err)
	}

	if err := s.cache.Delete(ctx, availabilityCacheKey(hold.ShowID)); err != nil {
		s.log.Warn("Availability cache invalidation failed", zap.Error(err))
	}

	return nil
}

func (s *holdService) SweepExpired(ctx context.Context) (int, error) {
	released, err := s.repo.Hold.ReleaseExpired(ctx, s.now())
	if err != nil {
		s.log.Error("Hold sweep failed", zap.Error(err))
		return 0, fmt.Errorf("sweep expired holds: %w", err)
	}
	if released > 0 {
		s.log.Info("Hold sweep released holds", zap.Int("count", released))
	}
	return released, nil
}

func (s *holdService) externalSeatIDs(ctx context.Context, showID uuid.UUID, seatIDs []uuid.UUID) ([]string, error) {
	mappings, err := s.repo.SeatMapping.ExternalIDsByShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("load seat mappings for show %s: %w", showID.String(), err)
	}

	externalIDs := make([]string, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		ext, ok := mappings[seatID]
		if !ok {
			return nil, fmt.Errorf("seat %s has no external mapping: %w", seatID.String(), entity.ErrMappingNotFound)
		}
		externalIDs = append(externalIDs, ext)
	}
	sort.Strings(externalIDs)
	return externalIDs, nil
}

func (s *holdService) buildHoldResponse(hold *entity.Hold, externalIDs []string) *response.HoldResponse {
	seats := make([]string, len(externalIDs))
	copy(seats, externalIDs)
	sort.Strings(seats)

	return &response.HoldResponse{
		ID:        hold.ID.String(),
		ShowID:    hold.ShowID.String(),
		Seats:     seats,
		Status:    string(hold.Status),
		ExpiresAt: hold.ExpiresAt,
		CreatedAt: hold.CreatedAt,
	}
}
