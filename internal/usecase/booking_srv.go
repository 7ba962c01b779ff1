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

type BookingService interface {
	// Finalize converts a valid, unexpired hold into a permanent booking.
	// Called only after the payment processor has confirmed payment; the
	// confirmation token is recorded, not validated.
	Finalize(ctx context.Context, req *request.FinalizeBookingRequest) (*response.BookingResponse, error)

	GetBookingByReference(ctx context.Context, reference string) (*response.BookingResponse, error)
}

type bookingService struct {
	repo  *repository.Repository
	cache *cache.Service
	log   *zap.Logger
	now   func() time.Time
}

func NewBookingService(repo *repository.Repository, cacheSvc *cache.Service, log *zap.Logger) BookingService {
	return &bookingService{
		repo:  repo,
		cache: cacheSvc,
		log:   log.With(zap.String("service", "booking")),
		now:   time.Now,
	}
}

func (s *bookingService) Finalize(ctx context.Context, req *request.FinalizeBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Finalize booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	holdID, err := uuid.Parse(req.HoldID)
	if err != nil {
		return nil, fmt.Errorf("invalid hold ID format %s: %w", req.HoldID, err)
	}

	hold, err := s.repo.Hold.FindByID(ctx, holdID)
	if err != nil {
		return nil, fmt.Errorf("get hold %s: %w", req.HoldID, err)
	}

	now := s.now()
	switch {
	case hold.Status == entity.HoldStatusFinalized:
		return nil, entity.ErrHoldFinalized
	case hold.Status == entity.HoldStatusReleased:
		return nil, entity.ErrHoldExpired
	case hold.Expired(now):
		// Lazy expiry before we even touch the finalize transaction.
		if err := s.repo.Hold.Release(ctx, holdID); err != nil {
			return nil, fmt.Errorf("release expired hold %s: %w", req.HoldID, err)
		}
		if err := s.cache.Delete(ctx, availabilityCacheKey(hold.ShowID)); err != nil {
			s.log.Warn("Availability cache invalidation failed", zap.Error(err))
		}
		return nil, entity.ErrHoldExpired
	}

	seats, err := s.repo.Seat.FindByIDs(ctx, hold.ShowID, hold.SeatIDs)
	if err != nil {
		return nil, fmt.Errorf("load held seats: %w", err)
	}
	totalPence := 0
	for _, seat := range seats {
		totalPence += seat.PricePence
	}

	reference, err := utils.GenerateBookingReference()
	if err != nil {
		return nil, fmt.Errorf("generate booking reference: %w", err)
	}

	booking := &entity.Booking{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		Reference:   reference,
		ShowID:      hold.ShowID,
		HoldID:      hold.ID,
		CustomerRef: req.CustomerRef,
		PaymentRef:  req.PaymentConfirmation,
		TotalSeats:  len(hold.SeatIDs),
		TotalPence:  totalPence,
		Status:      entity.BookingStatusConfirmed,
		SeatIDs:     hold.SeatIDs,
	}

	// The repository re-checks hold state under a row lock, so a race with
	// a sweep or a second finalize resolves to exactly one winner.
	if err := s.repo.Booking.Finalize(ctx, booking, now); err != nil {
		if err == entity.ErrInternalConsistency {
			s.log.Error("Finalize aborted on inconsistent seat state",
				zap.String("hold_id", req.HoldID),
				zap.String("show_id", hold.ShowID.String()),
			)
		}
		return nil, err
	}

	if err := s.cache.Delete(ctx, availabilityCacheKey(hold.ShowID)); err != nil {
		s.log.Warn("Availability cache invalidation failed", zap.Error(err))
	}

	s.log.Info("Booking finalized",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("hold_id", req.HoldID),
		zap.Int("seat_count", booking.TotalSeats),
		zap.Int("total_pence", booking.TotalPence),
	)

	return s.buildBookingResponse(ctx, booking)
}

func (s *bookingService) GetBookingByReference(ctx context.Context, reference string) (*response.BookingResponse, error) {
	booking, err := s.repo.Booking.FindByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", reference, err)
	}

	return s.buildBookingResponse(ctx, booking)
}

func (s *bookingService) buildBookingResponse(ctx context.Context, booking *entity.Booking) (*response.BookingResponse, error) {
	mappings, err := s.repo.SeatMapping.ExternalIDsByShow(ctx, booking.ShowID)
	if err != nil {
		return nil, fmt.Errorf("load seat mappings for show %s: %w", booking.ShowID.String(), err)
	}

	seats := make([]string, 0, len(booking.SeatIDs))
	for _, seatID := range booking.SeatIDs {
		ext, ok := mappings[seatID]
		if !ok {
			return nil, fmt.Errorf("seat %s has no external mapping: %w", seatID.String(), entity.ErrMappingNotFound)
		}
		seats = append(seats, ext)
	}
	sort.Strings(seats)

	return &response.BookingResponse{
		ID:          booking.ID.String(),
		Reference:   booking.Reference,
		ShowID:      booking.ShowID.String(),
		CustomerRef: booking.CustomerRef,
		Seats:       seats,
		TotalSeats:  booking.TotalSeats,
		TotalPence:  booking.TotalPence,
		Status:      string(booking.Status),
		CreatedAt:   booking.CreatedAt,
	}, nil
}
