package wire

import (
	"net/http"

	"theater-booking/internal/adaptor"
	"theater-booking/internal/data/repository"
	"theater-booking/internal/usecase"
	"theater-booking/pkg/cache"
	"theater-booking/pkg/middleware"
	"theater-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired dependencies.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring initializes all dependencies explicitly. No package-level state:
// everything is constructed here once and passed down.
func Wiring(repo *repository.Repository, config *utils.Config, cacheSvc *cache.Service, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, cacheSvc, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireShow(r, handler.Show)
	wireHold(r, handler.Hold)
	wireBooking(r, handler.Booking)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
