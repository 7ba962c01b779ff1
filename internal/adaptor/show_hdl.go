package adaptor

import (
	"encoding/json"
	"net/http"

	"theater-booking/internal/dto/request"
	"theater-booking/internal/usecase"
	"theater-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ShowHandler struct {
	service usecase.ShowService
	log     *zap.Logger
}

func NewShowHandler(service usecase.ShowService, log *zap.Logger) *ShowHandler {
	return &ShowHandler{
		service: service,
		log:     log.With(zap.String("handler", "show")),
	}
}

// ProvisionShow handles POST /api/shows
func (h *ShowHandler) ProvisionShow(w http.ResponseWriter, r *http.Request) {
	var req request.ProvisionShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	show, err := h.service.ProvisionShow(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "provision show")
		return
	}

	utils.ResponseCreated(w, "success", show)
}

// GetShows handles GET /api/shows
func (h *ShowHandler) GetShows(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	shows, err := h.service.GetShows(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list shows")
		return
	}

	utils.ResponseSuccess(w, "success", shows)
}

// GetShow handles GET /api/shows/{id}
func (h *ShowHandler) GetShow(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "id")
	if showID == "" {
		utils.ResponseBadRequest(w, "Show ID is required", nil)
		return
	}

	show, err := h.service.GetShow(r.Context(), showID)
	if err != nil {
		handleServiceError(w, h.log, err, "get show")
		return
	}

	utils.ResponseSuccess(w, "success", show)
}

// GetAvailability handles GET /api/shows/{id}/seats
func (h *ShowHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	showID := chi.URLParam(r, "id")
	if showID == "" {
		utils.ResponseBadRequest(w, "Show ID is required", nil)
		return
	}

	seats, err := h.service.GetAvailability(r.Context(), showID)
	if err != nil {
		handleServiceError(w, h.log, err, "get availability")
		return
	}

	utils.ResponseSuccess(w, "success", seats)
}
