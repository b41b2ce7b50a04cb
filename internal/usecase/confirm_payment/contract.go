package confirm_payment

import (
	"context"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByPaymentIntent(ctx context.Context, provider domain.PaymentProvider, intentID string) (*domain.Reservation, error)
}

// Lifecycle применяет действие pay к бронированию
type Lifecycle interface {
	Pay(ctx context.Context, actor domain.Actor, id int64) (*models.TransitionResult, error)
}

// PaymentGateway интерфейс платёжного шлюза
type PaymentGateway interface {
	Provider() domain.PaymentProvider
	ConfirmPayment(ctx context.Context, intentID string) (domain.PaymentOutcome, error)
	ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*domain.PaymentConfirmation, error)
}

// ProcessedTracker хранит идентификаторы уже обработанных webhook событий
type ProcessedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
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
