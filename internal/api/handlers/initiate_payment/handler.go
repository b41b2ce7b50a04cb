package initiate_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	initiatePayment "github.com/m04kA/SMC-ConsultationService/internal/usecase/initiate_payment"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "оплатить бронирование может только его владелец"
	msgNotAwaitingPayment   = "бронирование не ожидает оплаты"
	msgInvalidAmount        = "платёжный шлюз отклонил сумму или валюту"
	msgGatewayUnavailable   = "платёжный шлюз недоступен, повторите попытку позже"
)

type Handler struct {
	useCase InitiatePaymentUseCase
	logger  Logger
}

func NewHandler(useCase InitiatePaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations/{reservationId}/payment
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathID(r, "reservationId")
	if err != nil {
		h.logger.Warn("POST /reservations/{id}/payment - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations/{id}/payment - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &initiatePayment.Request{
		Actor:         actor,
		ReservationID: reservationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, initiatePayment.ErrReservationNotFound):
			h.logger.Warn("POST /reservations/{id}/payment - Reservation not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, initiatePayment.ErrAccessDenied):
			h.logger.Warn("POST /reservations/{id}/payment - Access denied: reservation_id=%d, user_id=%d",
				reservationID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, initiatePayment.ErrInvalidInput):
			h.logger.Warn("POST /reservations/{id}/payment - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidReservationID)

		case errors.Is(err, domain.ErrIllegalTransition):
			h.logger.Warn("POST /reservations/{id}/payment - Not awaiting payment: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondConflict(w, msgNotAwaitingPayment)

		case errors.Is(err, domain.ErrInvalidAmount):
			h.logger.Error("POST /reservations/{id}/payment - Amount rejected by gateway: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgInvalidAmount)

		case errors.Is(err, domain.ErrGatewayUnavailable):
			h.logger.Error("POST /reservations/{id}/payment - Gateway unavailable: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondError(w, http.StatusBadGateway, msgGatewayUnavailable)

		default:
			h.logger.Error("POST /reservations/{id}/payment - Failed to initiate payment: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations/{id}/payment - Payment initiated: reservation_id=%d, provider=%s, intent=%s",
		reservationID, result.Intent.Provider, result.Intent.ID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
