package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// WindowRepository интерфейс репозитория окон доступности
type WindowRepository interface {
	Create(ctx context.Context, window *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error)
	Update(ctx context.Context, window *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityWindow, error)
	ListByProfessional(ctx context.Context, professionalID int64, from, to *time.Time) ([]*domain.AvailabilityWindow, error)
	ListOverlapping(ctx context.Context, professionalID int64, date time.Time, start, end types.TimeString, excludeID int64) ([]*domain.AvailabilityWindow, error)
}

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	ListByWindow(ctx context.Context, windowID int64, activeOnly bool) ([]*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.ReservationStatus) (*domain.Reservation, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
