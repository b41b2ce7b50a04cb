package delete_window

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/service/availability"
)

const (
	msgInvalidWindowID       = "некорректный ID окна"
	msgInvalidCascade        = "параметр cascade должен быть true или false"
	msgMissingUserID         = "отсутствует ID пользователя"
	msgNotFound              = "окно доступности не найдено"
	msgForbidden             = "доступ запрещен"
	msgHasActiveReservations = "у окна есть активные бронирования, используйте cascade=true"
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

// Handle DELETE /api/v1/availability/{windowId}
// Query params: cascade (опционально) - отменить активные бронирования окна
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathID(r, "windowId")
	if err != nil {
		h.logger.Warn("DELETE /availability/{id} - Invalid window ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("DELETE /availability/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	cascade := false
	if raw := r.URL.Query().Get("cascade"); raw != "" {
		cascade, err = strconv.ParseBool(raw)
		if err != nil {
			h.logger.Warn("DELETE /availability/{id} - Invalid cascade: %q", raw)
			handlers.RespondBadRequest(w, msgInvalidCascade)
			return
		}
	}

	result, err := h.service.Delete(r.Context(), actor, windowID, cascade)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrWindowNotFound):
			h.logger.Warn("DELETE /availability/{id} - Window not found: window_id=%d", windowID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, availability.ErrAccessDenied):
			h.logger.Warn("DELETE /availability/{id} - Access denied: window_id=%d, user_id=%d", windowID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, availability.ErrWindowHasActiveReservations):
			h.logger.Warn("DELETE /availability/{id} - Window has active reservations: window_id=%d", windowID)
			handlers.RespondConflict(w, msgHasActiveReservations)

		default:
			h.logger.Error("DELETE /availability/{id} - Failed to delete window: window_id=%d, error=%v", windowID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /availability/{id} - Window deleted successfully: window_id=%d, cancelled=%d",
		windowID, len(result.CancelledReservationIDs))
	handlers.RespondJSON(w, http.StatusOK, result)
}
