package update_window

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/availability"
	"github.com/m04kA/SMC-ConsultationService/internal/service/availability/models"
)

const (
	msgInvalidWindowID       = "некорректный ID окна"
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgMissingUserID         = "отсутствует ID пользователя"
	msgNotFound              = "окно доступности не найдено"
	msgForbidden             = "доступ запрещен"
	msgInvalidWindow         = "некорректные границы окна: окно должно вмещать хотя бы одну консультацию"
	msgWindowInPast          = "дата окна уже прошла"
	msgWindowOverlap         = "окно пересекается с другим окном профессионала"
	msgHasActiveReservations = "изменение затронет активные бронирования окна"
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

// Handle PUT /api/v1/availability/{windowId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathID(r, "windowId")
	if err != nil {
		h.logger.Warn("PUT /availability/{id} - Invalid window ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("PUT /availability/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.UpdateWindowRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /availability/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	window, err := h.service.Update(r.Context(), actor, windowID, &req)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrWindowNotFound):
			h.logger.Warn("PUT /availability/{id} - Window not found: window_id=%d", windowID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, availability.ErrAccessDenied):
			h.logger.Warn("PUT /availability/{id} - Access denied: window_id=%d, user_id=%d", windowID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, availability.ErrInvalidInput):
			h.logger.Warn("PUT /availability/{id} - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, domain.ErrInvalidWindow):
			h.logger.Warn("PUT /availability/{id} - Invalid window: %v", err)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, availability.ErrWindowInPast):
			h.logger.Warn("PUT /availability/{id} - Window in past: window_id=%d, date=%s", windowID, req.Date)
			handlers.RespondBadRequest(w, msgWindowInPast)

		case errors.Is(err, availability.ErrWindowOverlap):
			h.logger.Warn("PUT /availability/{id} - Window overlap: %v", err)
			handlers.RespondConflict(w, msgWindowOverlap)

		case errors.Is(err, availability.ErrWindowHasActiveReservations):
			h.logger.Warn("PUT /availability/{id} - Active reservations affected: %v", err)
			handlers.RespondConflict(w, msgHasActiveReservations)

		default:
			h.logger.Error("PUT /availability/{id} - Failed to update window: window_id=%d, error=%v", windowID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /availability/{id} - Window updated successfully: window_id=%d", windowID)
	handlers.RespondJSON(w, http.StatusOK, window)
}
