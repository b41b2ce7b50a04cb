package change_reservation_status

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "доступ запрещен"
	msgIllegalTransition    = "действие недопустимо в текущем статусе бронирования"
)

type Handler struct {
	service ReservationService
	action  domain.Action
	route   string
	logger  Logger
}

// NewHandler создает обработчик для approve, refuse или cancel
func NewHandler(service ReservationService, action domain.Action, logger Logger) (*Handler, error) {
	switch action {
	case domain.ActionApprove, domain.ActionRefuse, domain.ActionCancel:
	default:
		return nil, fmt.Errorf("unsupported reservation action %q", action)
	}
	return &Handler{
		service: service,
		action:  action,
		route:   fmt.Sprintf("PATCH /reservations/{id}/%s", action),
		logger:  logger,
	}, nil
}

// Handle PATCH /api/v1/reservations/{reservationId}/{approve|refuse|cancel}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathID(r, "reservationId")
	if err != nil {
		h.logger.Warn("%s - Invalid reservation ID: %v", h.route, err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", h.route)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.apply(r.Context(), actor, reservationID)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("%s - Reservation not found: reservation_id=%d", h.route, reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrAccessDenied):
			h.logger.Warn("%s - Access denied: reservation_id=%d, user_id=%d", h.route, reservationID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrIllegalTransition):
			h.logger.Warn("%s - Illegal transition: reservation_id=%d, error=%v", h.route, reservationID, err)
			handlers.RespondConflict(w, msgIllegalTransition)

		default:
			h.logger.Error("%s - Failed to %s reservation: reservation_id=%d, error=%v", h.route, h.action, reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s - Reservation updated: reservation_id=%d, status=%s, user_id=%d",
		h.route, reservationID, result.Status, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) apply(ctx context.Context, actor domain.Actor, id int64) (*models.ReservationResponse, error) {
	switch h.action {
	case domain.ActionApprove:
		return h.service.Approve(ctx, actor, id)
	case domain.ActionRefuse:
		return h.service.Refuse(ctx, actor, id)
	default:
		return h.service.Cancel(ctx, actor, id)
	}
}
