package get_available_slots

import (
	"context"
	"iter"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/slots"
)

// WindowRepository интерфейс репозитория окон доступности
type WindowRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityWindow, error)
}

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	// ListByWindow получает бронирования окна (activeOnly - только занимающие слот)
	ListByWindow(ctx context.Context, windowID int64, activeOnly bool) ([]*domain.Reservation, error)
}

// SlotResolver вычисляет состояние слотов по бронированиям окна
type SlotResolver interface {
	Resolve(candidates iter.Seq[slots.Candidate], reservations []*domain.Reservation, requestingUserID int64, now time.Time) []slots.ResolvedSlot
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
