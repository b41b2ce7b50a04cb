package payment_webhook

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	confirmPayment "github.com/m04kA/SMC-ConsultationService/internal/usecase/confirm_payment"
)

const (
	msgInvalidBody           = "не удалось прочитать тело запроса"
	msgInvalidWebhook        = "webhook не прошёл проверку"
	msgProviderNotConfigured = "платёжный провайдер не подключён"
)

// Handler принимает webhook одного платёжного провайдера
type Handler struct {
	provider domain.PaymentProvider
	useCase  WebhookUseCase
	logger   Logger
}

func NewHandler(provider domain.PaymentProvider, useCase WebhookUseCase, logger Logger) *Handler {
	return &Handler{
		provider: provider,
		useCase:  useCase,
		logger:   logger,
	}
}

// Handle POST /api/v1/webhooks/payments/{provider}
// 2xx означает, что событие принято и шлюзу не нужно повторять доставку
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := handlers.ReadBody(r)
	if err != nil {
		h.logger.Warn("POST /webhooks/payments/%s - Failed to read body: %v", h.provider, err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	result, err := h.useCase.HandleWebhook(r.Context(), &confirmPayment.WebhookRequest{
		Provider: h.provider,
		Payload:  payload,
		Header:   r.Header,
	})
	if err != nil {
		switch {
		case errors.Is(err, confirmPayment.ErrInvalidWebhook):
			h.logger.Warn("POST /webhooks/payments/%s - Invalid webhook: %v", h.provider, err)
			handlers.RespondBadRequest(w, msgInvalidWebhook)

		case errors.Is(err, confirmPayment.ErrProviderNotConfigured):
			h.logger.Warn("POST /webhooks/payments/%s - Provider not configured", h.provider)
			handlers.RespondNotFound(w, msgProviderNotConfigured)

		default:
			// 5xx: шлюз повторит доставку
			h.logger.Error("POST /webhooks/payments/%s - Failed to handle webhook: %v", h.provider, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /webhooks/payments/%s - Webhook accepted: reservation_id=%d, outcome=%s, duplicate=%t, rejected=%t",
		h.provider, result.ReservationID, result.Outcome, result.Duplicate, result.Rejected)
	w.WriteHeader(http.StatusOK)
}
