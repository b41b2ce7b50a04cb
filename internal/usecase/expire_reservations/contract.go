package expire_reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	ListAwaitingPaymentBefore(ctx context.Context, before time.Time, limit uint64) ([]*domain.Reservation, error)
}

// Lifecycle применяет действие timeout к бронированию
type Lifecycle interface {
	Timeout(ctx context.Context, actor domain.Actor, id int64) (*models.TransitionResult, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
