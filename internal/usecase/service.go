package usecase

import (
	"fmt"
	"time"

	"theater-booking/internal/data/repository"
	"theater-booking/pkg/cache"
	"theater-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	Show    ShowService
	Hold    HoldService
	Booking BookingService
}

// NewService wires the services. All dependencies are constructed once at
// process start and passed by reference; cacheSvc may be nil when Redis is
// not configured.
func NewService(repo *repository.Repository, config *utils.Config, cacheSvc *cache.Service, log *zap.Logger) *Service {
	return &Service{
		Show:    NewShowService(repo, cacheSvc, log),
		Hold:    NewHoldService(repo, config, cacheSvc, log),
		Booking: NewBookingService(repo, cacheSvc, log),
	}
}

// availabilityCacheKey names the per-show availability snapshot in Redis.
func availabilityCacheKey(showID uuid.UUID) string {
	return fmt.Sprintf("availability:%s", showID.String())
}

// availabilityCacheTTL bounds how stale a cached seat map may be. The
// booking path never reads the cache, so this only affects display.
const availabilityCacheTTL = 5 * time.Second
