package create_window

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
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidWindow      = "некорректные границы окна: окно должно вмещать хотя бы одну консультацию"
	msgWindowInPast       = "дата окна уже прошла"
	msgWindowOverlap      = "окно пересекается с другим окном профессионала"
	msgForbidden          = "создавать окна может только профессионал"
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

// Handle POST /api/v1/availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("POST /availability - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.CreateWindowRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /availability - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	window, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrAccessDenied):
			h.logger.Warn("POST /availability - Access denied: user_id=%d, role=%s", actor.UserID, actor.Role)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, availability.ErrInvalidInput):
			h.logger.Warn("POST /availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, domain.ErrInvalidWindow):
			h.logger.Warn("POST /availability - Invalid window: %v", err)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, availability.ErrWindowInPast):
			h.logger.Warn("POST /availability - Window in past: date=%s", req.Date)
			handlers.RespondBadRequest(w, msgWindowInPast)

		case errors.Is(err, availability.ErrWindowOverlap):
			h.logger.Warn("POST /availability - Window overlap: %v", err)
			handlers.RespondConflict(w, msgWindowOverlap)

		default:
			h.logger.Error("POST /availability - Failed to create window: user_id=%d, error=%v", actor.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /availability - Window created successfully: window_id=%d, professional_id=%d",
		window.ID, window.ProfessionalID)
	handlers.RespondJSON(w, http.StatusCreated, window)
}
