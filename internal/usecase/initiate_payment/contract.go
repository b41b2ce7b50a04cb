package initiate_payment

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	// SetPaymentIntent сохраняет снимок платежа, только пока бронирование ожидает оплаты
	SetPaymentIntent(ctx context.Context, id int64, provider domain.PaymentProvider, intentID string, amountCents int64, currency string) (*domain.Reservation, error)
}

// PaymentGateway интерфейс платёжного шлюза
type PaymentGateway interface {
	Provider() domain.PaymentProvider
	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error)
}

// GatewayMetrics учитывает вызовы платёжного шлюза
type GatewayMetrics interface {
	ObserveGatewayCall(provider, operation string, err error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
