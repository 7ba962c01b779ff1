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

type HoldHandler struct {
	service usecase.HoldService
	log     *zap.Logger
}

func NewHoldHandler(service usecase.HoldService, log *zap.Logger) *HoldHandler {
	return &HoldHandler{
		service: service,
		log:     log.With(zap.String("handler", "hold")),
	}
}

// CreateHold handles POST /api/holds
func (h *HoldHandler) CreateHold(w http.ResponseWriter, r *http.Request) {
	var req request.CreateHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	hold, err := h.service.CreateHold(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create hold")
		return
	}

	utils.ResponseCreated(w, "success", hold)
}

// GetHold handles GET /api/holds/{id}
func (h *HoldHandler) GetHold(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "id")
	if holdID == "" {
		utils.ResponseBadRequest(w, "Hold ID is required", nil)
		return
	}

	hold, err := h.service.GetHold(r.Context(), holdID)
	if err != nil {
		handleServiceError(w, h.log, err, "get hold")
		return
	}

	utils.ResponseSuccess(w, "success", hold)
}

// ReleaseHold handles DELETE /api/holds/{id}
func (h *HoldHandler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "id")
	if holdID == "" {
		utils.ResponseBadRequest(w, "Hold ID is required", nil)
		return
	}

	if err := h.service.ReleaseHold(r.Context(), holdID); err != nil {
		handleServiceError(w, h.log, err, "release hold")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
