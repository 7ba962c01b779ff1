package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
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

type ShowService interface {
	// ProvisionShow seeds a show's seats and external-id mappings from the
	// venue layout, exactly once. A duplicate external id halts the whole
	// provision with MappingConflictError.
	ProvisionShow(ctx context.Context, req *request.ProvisionShowRequest) (*response.ShowResponse, error)

	GetShows(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ShowResponse], error)
	GetShow(ctx context.Context, showID string) (*response.ShowResponse, error)

	// GetAvailability returns the seat map keyed by external identifiers.
	// Expired holds touching the show are released before a fresh read.
	GetAvailability(ctx context.Context, showID string) (*response.ShowSeatsResponse, error)
}

type showService struct {
	repo  *repository.Repository
	cache *cache.Service
	log   *zap.Logger
	now   func() time.Time
}

func NewShowService(repo *repository.Repository, cacheSvc *cache.Service, log *zap.Logger) ShowService {
	return &showService{
		repo:  repo,
		cache: cacheSvc,
		log:   log.With(zap.String("service", "show")),
		now:   time.Now,
	}
}

// externalSeatID builds the client-facing identifier for a seat, encoding
// the section/row/seat triple the presentation layer understands.
func externalSeatID(section string, rowIndex, seatNumber int) string {
	return fmt.Sprintf("%s-%d-%d", strings.ToLower(section), rowIndex, seatNumber)
}

func (s *showService) ProvisionShow(ctx context.Context, req *request.ProvisionShowRequest) (*response.ShowResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Provision show validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	now := s.now()
	show := &entity.Show{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:     req.Title,
		VenueName: req.VenueName,
		StartsAt:  req.StartsAt,
	}

	var seats []*entity.Seat
	var mappings []*entity.SeatMapping
	for _, section := range req.Sections {
		for rowIdx, row := range section.Rows {
			for n := 1; n <= row.Seats; n++ {
				seat := &entity.Seat{
					BaseNoDelete: entity.BaseNoDelete{
						ID:        uuid.New(),
						CreatedAt: now,
						UpdatedAt: now,
					},
					ShowID:     show.ID,
					Section:    section.Name,
					RowLabel:   row.Label,
					SeatNumber: n,
					PricePence: section.PricePence,
					Accessible: row.Accessible,
					Status:     entity.SeatStatusAvailable,
					PosX:       float64(n),
					PosY:       float64(rowIdx + 1),
				}
				seats = append(seats, seat)
				mappings = append(mappings, &entity.SeatMapping{
					BaseSimple: entity.BaseSimple{
						ID:        uuid.New(),
						CreatedAt: now,
					},
					ShowID:     show.ID,
					ExternalID: externalSeatID(section.Name, rowIdx+1, n),
					SeatID:     seat.ID,
				})
			}
		}
	}

	if err := s.repo.Show.Provision(ctx, show, seats, mappings); err != nil {
		s.log.Error("Failed to provision show",
			zap.Error(err),
			zap.String("title", req.Title),
		)
		return nil, fmt.Errorf("provision show: %w", err)
	}

	s.log.Info("Show provisioned",
		zap.String("show_id", show.ID.String()),
		zap.String("title", show.Title),
		zap.Int("seat_count", len(seats)),
	)

	return &response.ShowResponse{
		ID:        show.ID.String(),
		Title:     show.Title,
		VenueName: show.VenueName,
		StartsAt:  show.StartsAt,
		SeatCount: len(seats),
		CreatedAt: show.CreatedAt,
	}, nil
}

func (s *showService) GetShows(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ShowResponse], error) {
	shows, err := s.repo.Show.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list shows", zap.Error(err))
		return nil, fmt.Errorf("list shows: %w", err)
	}

	total, err := s.repo.Show.Count(ctx)
	if err != nil {
		s.log.Error("Failed to count shows", zap.Error(err))
		return nil, fmt.Errorf("count shows: %w", err)
	}

	showResponses := make([]response.ShowResponse, len(shows))
	for i, show := range shows {
		showResponses[i] = response.ShowResponse{
			ID:        show.ID.String(),
			Title:     show.Title,
			VenueName: show.VenueName,
			StartsAt:  show.StartsAt,
			CreatedAt: show.CreatedAt,
		}
	}

	return response.NewPaginatedResponse(showResponses, req.Page, req.PerPage, total), nil
}

func (s *showService) GetShow(ctx context.Context, showID string) (*response.ShowResponse, error) {
	id, err := uuid.Parse(showID)
	if err != nil {
		return nil, fmt.Errorf("invalid show ID format %s: %w", showID, err)
	}

	show, err := s.repo.Show.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get show %s: %w", showID, err)
	}

	return &response.ShowResponse{
		ID:        show.ID.String(),
		Title:     show.Title,
		VenueName: show.VenueName,
		StartsAt:  show.StartsAt,
		CreatedAt: show.CreatedAt,
	}, nil
}

func (s *showService) GetAvailability(ctx context.Context, showID string) (*response.ShowSeatsResponse, error) {
	id, err := uuid.Parse(showID)
	if err != nil {
		return nil, fmt.Errorf("invalid show ID format %s: %w", showID, err)
	}

	var cached response.ShowSeatsResponse
	if err := s.cache.Get(ctx, availabilityCacheKey(id), &cached); err == nil {
		return &cached, nil
	} else if err != cache.ErrCacheMiss {
		s.log.Warn("Availability cache read failed", zap.Error(err))
	}

	if _, err := s.repo.Show.FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get show %s: %w", showID, err)
	}

	// Lazy expiry: stale holds on this show are released before reading so
	// the snapshot never shows a seat as held past its TTL.
	if _, err := s.repo.Hold.ReleaseExpiredByShow(ctx, id, s.now()); err != nil {
		return nil, fmt.Errorf("release expired holds for show %s: %w", showID, err)
	}

	seats, err := s.repo.Seat.FindByShowID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load seats for show %s: %w", showID, err)
	}

	externalIDs, err := s.repo.SeatMapping.ExternalIDsByShow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load seat mappings for show %s: %w", showID, err)
	}

	result := &response.ShowSeatsResponse{
		ShowID: id.String(),
		Seats:  make([]response.SeatResponse, 0, len(seats)),
	}
	for _, seat := range seats {
		externalID, ok := externalIDs[seat.ID]
		if !ok {
			// Every seat gets its mapping at provision time inside the same
			// transaction, so a gap here means the mapping table was touched
			// out of band.
			s.log.Error("Seat without external mapping",
				zap.String("show_id", id.String()),
				zap.String("seat_id", seat.ID.String()),
			)
			return nil, fmt.Errorf("seat %s has no external mapping: %w", seat.ID.String(), entity.ErrMappingNotFound)
		}
		result.Seats = append(result.Seats, response.SeatResponse{
			Seat:       externalID,
			Section:    seat.Section,
			Row:        seat.RowLabel,
			Number:     seat.SeatNumber,
			PricePence: seat.PricePence,
			Accessible: seat.Accessible,
			Status:     string(seat.Status),
			PosX:       seat.PosX,
			PosY:       seat.PosY,
		})
	}
	sort.Slice(result.Seats, func(i, j int) bool { return result.Seats[i].Seat < result.Seats[j].Seat })

	if err := s.cache.Set(ctx, availabilityCacheKey(id), result, availabilityCacheTTL); err != nil {
		s.log.Warn("Availability cache write failed", zap.Error(err))
	}

	return result, nil
}
