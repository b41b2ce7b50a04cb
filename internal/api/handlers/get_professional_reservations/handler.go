package get_professional_reservations

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
)

const (
	msgInvalidProfessionalID = "некорректный ID профессионала"
	msgMissingUserID         = "отсутствует ID пользователя"
	msgInvalidStatus         = "некорректный статус бронирования"
	msgForbidden             = "доступ запрещен"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/professionals/{professionalId}/reservations
// Query params: status (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	professionalID, err := handlers.PathID(r, "professionalId")
	if err != nil {
		h.logger.Warn("GET /professionals/{id}/reservations - Invalid professional ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProfessionalID)
		return
	}

	// Получаем actor из контекста (через middleware Auth)
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("GET /professionals/{id}/reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req := &models.ListReservationsRequest{Actor: actor}
	if status := r.URL.Query().Get("status"); status != "" {
		req.Status = &status
	}

	// Сервис сам проверит, что actor - этот профессионал или администратор
	result, err := h.service.ListByProfessional(r.Context(), professionalID, req)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrAccessDenied):
			h.logger.Warn("GET /professionals/{id}/reservations - Access denied: professional_id=%d, user_id=%d",
				professionalID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrInvalidInput):
			h.logger.Warn("GET /professionals/{id}/reservations - Invalid status: %v", err)
			handlers.RespondBadRequest(w, msgInvalidStatus)

		default:
			h.logger.Error("GET /professionals/{id}/reservations - Failed to get reservations: professional_id=%d, error=%v",
				professionalID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /professionals/{id}/reservations - Reservations retrieved successfully: professional_id=%d, count=%d",
		professionalID, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
