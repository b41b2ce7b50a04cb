package get_window

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/service/availability"
)

const (
	msgInvalidWindowID = "некорректный ID окна"
	msgNotFound        = "окно доступности не найдено"
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

// Handle GET /api/v1/availability/{windowId}
// Публичный endpoint - без авторизации
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathID(r, "windowId")
	if err != nil {
		h.logger.Warn("GET /availability/{id} - Invalid window ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	window, err := h.service.GetByID(r.Context(), windowID)
	if err != nil {
		if errors.Is(err, availability.ErrWindowNotFound) {
			h.logger.Warn("GET /availability/{id} - Window not found: window_id=%d", windowID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}

		h.logger.Error("GET /availability/{id} - Failed to get window: window_id=%d, error=%v", windowID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /availability/{id} - Window retrieved successfully: window_id=%d", windowID)
	handlers.RespondJSON(w, http.StatusOK, window)
}
