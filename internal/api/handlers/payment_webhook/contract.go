package payment_webhook

import (
	"context"

	confirmPayment "github.com/m04kA/SMC-ConsultationService/internal/usecase/confirm_payment"
)

type WebhookUseCase interface {
	HandleWebhook(ctx context.Context, req *confirmPayment.WebhookRequest) (*confirmPayment.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
