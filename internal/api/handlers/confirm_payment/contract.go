package confirm_payment

import (
	"context"

	confirmPayment "github.com/m04kA/SMC-ConsultationService/internal/usecase/confirm_payment"
)

type ConfirmPaymentUseCase interface {
	ConfirmByClient(ctx context.Context, req *confirmPayment.ClientRequest) (*confirmPayment.Result, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
