package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// WindowRepository интерфейс репозитория окон доступности
type WindowRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityWindow, error)
}

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	// CreateIfSlotFree создает бронирование, если на слоте нет активного бронирования
	CreateIfSlotFree(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier получает события жизненного цикла бронирования
type Notifier interface {
	Notify(ctx context.Context, event domain.LifecycleEvent) error
}

// TransitionMetrics учитывает переходы жизненного цикла
type TransitionMetrics interface {
	ObserveTransition(action, from, to string)
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
