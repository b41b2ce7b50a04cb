package list_windows

import (
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
)

const (
	msgInvalidProfessionalID = "некорректный ID профессионала"
	msgInvalidDateRange      = "некорректный диапазон дат, ожидается YYYY-MM-DD"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/professionals/{professionalId}/availability
// Query params: from, to (опционально, YYYY-MM-DD)
// Публичный endpoint - без авторизации
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	professionalID, err := handlers.PathID(r, "professionalId")
	if err != nil {
		h.logger.Warn("GET /professionals/{id}/availability - Invalid professional ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProfessionalID)
		return
	}

	req, err := ToServiceRequest(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		h.logger.Warn("GET /professionals/{id}/availability - Invalid date range: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateRange)
		return
	}

	result, err := h.service.ListByProfessional(r.Context(), professionalID, req)
	if err != nil {
		h.logger.Error("GET /professionals/{id}/availability - Failed to list windows: professional_id=%d, error=%v",
			professionalID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /professionals/{id}/availability - Windows retrieved successfully: professional_id=%d, count=%d",
		professionalID, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
