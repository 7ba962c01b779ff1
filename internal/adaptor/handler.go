package adaptor

import (
	"errors"
	"net/http"
	"strings"

	"theater-booking/internal/data/entity"
	"theater-booking/internal/usecase"
	"theater-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Show    *ShowHandler
	Hold    *HoldHandler
	Booking *BookingHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Show:    NewShowHandler(service.Show, log),
		Hold:    NewHoldHandler(service.Hold, log),
		Booking: NewBookingHandler(service.Booking, log),
	}
}

// handleServiceError maps the domain error taxonomy onto HTTP statuses.
// The core never formats user-facing messages; this is the one place the
// translation happens.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var seatErr *entity.SeatUnavailableError
	var conflictErr *entity.MappingConflictError

	switch {
	case errors.As(err, &seatErr):
		log.Info(operation+" rejected - seats unavailable",
			zap.Strings("seats", seatErr.Seats))
		utils.ResponseConflict(w, "One or more seats are no longer available", seatErr.Seats)

	case errors.As(err, &conflictErr):
		log.Warn(operation+" failed - mapping conflict",
			zap.Error(err),
			zap.String("external_id", conflictErr.ExternalID))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, entity.ErrHoldExpired):
		log.Info(operation + " rejected - hold expired")
		utils.ResponseGone(w, "Your hold has expired, please reselect your seats")

	case errors.Is(err, entity.ErrHoldFinalized):
		log.Warn(operation + " rejected - hold already finalized")
		utils.ResponseConflict(w, "This hold has already been finalized", nil)

	case errors.Is(err, entity.ErrShowNotFound),
		errors.Is(err, entity.ErrSeatNotFound),
		errors.Is(err, entity.ErrMappingNotFound),
		errors.Is(err, entity.ErrHoldNotFound),
		errors.Is(err, entity.ErrBookingNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, entity.ErrInternalConsistency):
		// Already logged with full context where it was detected.
		log.Error(operation+" failed - consistency violation", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")

	case strings.Contains(err.Error(), "validation failed"),
		strings.Contains(err.Error(), "invalid"):
		log.Warn(operation+" failed - bad input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
