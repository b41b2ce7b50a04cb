package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	windowRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/availability"
	"github.com/m04kA/SMC-ConsultationService/internal/slots"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// UseCase use case для получения слотов окна доступности с их состоянием
type UseCase struct {
	windowRepo      WindowRepository
	reservationRepo ReservationRepository
	resolver        SlotResolver
	durationMinutes int
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	windowRepo WindowRepository,
	reservationRepo ReservationRepository,
	resolver SlotResolver,
	durationMinutes int,
	logger Logger,
) *UseCase {
	return &UseCase{
		windowRepo:      windowRepo,
		reservationRepo: reservationRepo,
		resolver:        resolver,
		durationMinutes: durationMinutes,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения слотов
// Результат только для отображения: занятость слота окончательно проверяется при бронировании
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: user=%d, window=%d, includePast=%t", req.UserID, req.WindowID, req.IncludePast)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем окно
	window, err := uc.windowRepo.GetByID(ctx, req.WindowID)
	if err != nil {
		if errors.Is(err, windowRepo.ErrWindowNotFound) {
			uc.logger.Warn("GetAvailableSlots: window id=%d not found", req.WindowID)
			return nil, ErrWindowNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get window id=%d: %v", req.WindowID, err)
		return nil, fmt.Errorf("%w: failed to get window: %v", ErrInternal, err)
	}

	// 4. Получаем активные бронирования окна
	reservations, err := uc.reservationRepo.ListByWindow(ctx, window.ID, true)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get reservations of window id=%d: %v", window.ID, err)
		return nil, fmt.Errorf("%w: failed to get reservations: %v", ErrInternal, err)
	}

	// 5. Генерируем слоты и вычисляем их состояние
	candidates := slots.Bookable(window, uc.durationMinutes, now)
	if req.IncludePast {
		candidates = slots.All(window, uc.durationMinutes)
	}
	resolved := uc.resolver.Resolve(candidates, reservations, req.UserID, now)

	result := make([]Slot, 0, len(resolved))
	for _, rs := range resolved {
		result = append(result, Slot{
			StartTime:     rs.StartTime,
			EndTime:       types.NewTimeString(rs.EndsAt()),
			StartsAt:      rs.StartsAt,
			State:         rs.State,
			ReservationID: rs.ReservationID,
		})
	}

	uc.logger.Info("GetAvailableSlots: resolved %d slots for window=%d (%d active reservations)",
		len(result), window.ID, len(reservations))

	return &Response{
		WindowID:        window.ID,
		ProfessionalID:  window.ProfessionalID,
		Date:            window.Date,
		DurationMinutes: uc.durationMinutes,
		Slots:           result,
	}, nil
}
