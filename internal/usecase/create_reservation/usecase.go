package create_reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	windowRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/availability"
	reservationRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ConsultationService/internal/slots"
	"github.com/m04kA/SMC-ConsultationService/pkg/txmanager"
)

// UseCase use case для бронирования слота
type UseCase struct {
	windowRepo      WindowRepository
	reservationRepo ReservationRepository
	txManager       TransactionManager
	notifier        Notifier
	metrics         TransitionMetrics
	durationMinutes int
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
// notifier и metrics могут быть nil
func NewUseCase(
	windowRepo WindowRepository,
	reservationRepo ReservationRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics TransitionMetrics,
	durationMinutes int,
	logger Logger,
) *UseCase {
	return &UseCase{
		windowRepo:      windowRepo,
		reservationRepo: reservationRepo,
		txManager:       txManager,
		notifier:        notifier,
		metrics:         metrics,
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

// Execute выполняет use case бронирования слота
// Свободность слота гарантирует хранилище (частичный уникальный индекс) внутри сериализуемой транзакции.
// Проигравший гонку получает domain.ErrSlotUnavailable вместе с domain.ErrStaleView.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: user=%d, window=%d, start=%s", req.Actor.UserID, req.WindowID, req.StartTime)

	// 1. Валидация входных данных
	startTime, err := validateRequest(req)
	if err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	status, _, err := domain.NextStatus("", domain.ActionBook)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	var result *domain.Reservation

	// 3. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Получаем окно (в транзакции строка блокируется)
		window, err := uc.windowRepo.GetByID(txCtx, req.WindowID)
		if err != nil {
			if errors.Is(err, windowRepo.ErrWindowNotFound) {
				uc.logger.Warn("CreateReservation: window id=%d not found", req.WindowID)
				return ErrWindowNotFound
			}
			uc.logger.Error("CreateReservation: failed to get window id=%d: %v", req.WindowID, err)
			return fmt.Errorf("%w: failed to get window: %v", ErrInternal, err)
		}

		// 3.2. Профессионал не бронирует собственное окно
		if window.IsOwnedBy(req.Actor.UserID) {
			uc.logger.Warn("CreateReservation: user=%d tried to book own window id=%d", req.Actor.UserID, window.ID)
			return ErrOwnWindow
		}

		// 3.3. Время должно быть началом слота окна
		candidate, ok := slots.Contains(window, uc.durationMinutes, startTime)
		if !ok {
			uc.logger.Warn("CreateReservation: start=%s is not a slot of window id=%d", startTime, window.ID)
			return fmt.Errorf("%w: %s", ErrInvalidTimeSlot, startTime)
		}

		// 3.4. Слот ещё не начался
		if !candidate.StartsAt.After(now) {
			uc.logger.Warn("CreateReservation: slot %s of window id=%d already started", startTime, window.ID)
			return ErrSlotInPast
		}

		// 3.5. Создаем бронирование
		created, err := uc.reservationRepo.CreateIfSlotFree(txCtx, &domain.Reservation{
			WindowID:       window.ID,
			StartTime:      candidate.StartTime,
			UserID:         req.Actor.UserID,
			ProfessionalID: window.ProfessionalID,
			Status:         status,
		})
		if err != nil {
			if errors.Is(err, reservationRepo.ErrSlotUnavailable) {
				return errors.Join(domain.ErrSlotUnavailable, domain.ErrStaleView)
			}
			uc.logger.Error("CreateReservation: failed to create reservation: %v", err)
			return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrSerializationFailure) {
			err = errors.Join(domain.ErrSlotUnavailable, domain.ErrStaleView)
		}
		if errors.Is(err, domain.ErrSlotUnavailable) {
			uc.logger.Warn("CreateReservation: slot window=%d start=%s is no longer free", req.WindowID, startTime)
			return nil, err
		}
		if errors.Is(err, txmanager.ErrBeginTx) || errors.Is(err, txmanager.ErrCommitTx) {
			uc.logger.Error("CreateReservation: transaction failed: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ObserveTransition(string(domain.ActionBook), "", string(result.Status))
	}
	if uc.notifier != nil {
		event := domain.NewLifecycleEvent(result, domain.ActionBook, "", req.Actor, now)
		if err := uc.notifier.Notify(ctx, event); err != nil {
			uc.logger.Error("CreateReservation: failed to notify reservation id=%d: %v", result.ID, err)
		}
	}

	uc.logger.Info("CreateReservation: successfully created reservation id=%d", result.ID)
	return &Response{Reservation: result}, nil
}
