package confirm_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	confirmPayment "github.com/m04kA/SMC-ConsultationService/internal/usecase/confirm_payment"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "подтвердить оплату может только владелец бронирования"
	msgNoPaymentIntent      = "для бронирования не создан платёж"
	msgIllegalTransition    = "бронирование больше не ожидает оплаты"
	msgPaymentFailed        = "оплата не прошла"
	msgGatewayUnavailable   = "платёжный шлюз недоступен, повторите попытку позже"
)

type Handler struct {
	useCase ConfirmPaymentUseCase
	logger  Logger
}

func NewHandler(useCase ConfirmPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations/{reservationId}/payment/confirm
// Исход платежа запрашивается у шлюза, тело запроса не используется
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathID(r, "reservationId")
	if err != nil {
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations/{id}/payment/confirm - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.useCase.ConfirmByClient(r.Context(), &confirmPayment.ClientRequest{
		Actor:         actor,
		ReservationID: reservationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, confirmPayment.ErrReservationNotFound):
			h.logger.Warn("POST /reservations/{id}/payment/confirm - Reservation not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, confirmPayment.ErrAccessDenied):
			h.logger.Warn("POST /reservations/{id}/payment/confirm - Access denied: reservation_id=%d, user_id=%d",
				reservationID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, confirmPayment.ErrInvalidInput):
			h.logger.Warn("POST /reservations/{id}/payment/confirm - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidReservationID)

		case errors.Is(err, confirmPayment.ErrNoPaymentIntent):
			h.logger.Warn("POST /reservations/{id}/payment/confirm - No payment intent: reservation_id=%d", reservationID)
			handlers.RespondConflict(w, msgNoPaymentIntent)

		case errors.Is(err, domain.ErrIllegalTransition):
			h.logger.Warn("POST /reservations/{id}/payment/confirm - Payment rejected: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondConflict(w, msgIllegalTransition)

		case errors.Is(err, domain.ErrPaymentFailed):
			h.logger.Warn("POST /reservations/{id}/payment/confirm - Payment failed: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondError(w, http.StatusPaymentRequired, msgPaymentFailed)

		case errors.Is(err, domain.ErrGatewayUnavailable):
			h.logger.Error("POST /reservations/{id}/payment/confirm - Gateway unavailable: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondError(w, http.StatusBadGateway, msgGatewayUnavailable)

		default:
			h.logger.Error("POST /reservations/{id}/payment/confirm - Failed to confirm payment: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations/{id}/payment/confirm - Payment confirmed: reservation_id=%d, outcome=%s, status=%s",
		reservationID, result.Outcome, result.Status)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResult(result))
}
