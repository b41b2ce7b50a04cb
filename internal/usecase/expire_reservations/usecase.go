package expire_reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations"
)

// UseCase use case для отмены бронирований, не оплаченных вовремя
type UseCase struct {
	reservationRepo ReservationRepository
	lifecycle       Lifecycle
	cfg             Config
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	lifecycle Lifecycle,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		lifecycle:       lifecycle,
		cfg:             cfg,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute отменяет бронирования, ожидающие оплату дольше таймаута
// Бронирование, оплаченное во время прохода, пропускается: pay побеждает timeout.
func (uc *UseCase) Execute(ctx context.Context) (*Response, error) {
	before := uc.timeProvider.Now().Add(-uc.cfg.AwaitingPaymentTimeout)

	stale, err := uc.reservationRepo.ListAwaitingPaymentBefore(ctx, before, uc.cfg.BatchSize)
	if err != nil {
		uc.logger.Error("ExpireReservations: failed to list stale reservations: %v", err)
		return nil, fmt.Errorf("%w: failed to list reservations: %v", ErrInternal, err)
	}

	resp := &Response{Expired: make([]int64, 0, len(stale))}
	if len(stale) == 0 {
		return resp, nil
	}

	uc.logger.Info("ExpireReservations: %d reservations awaiting payment since before %s", len(stale), before.Format("2006-01-02 15:04:05"))

	for _, r := range stale {
		if err := ctx.Err(); err != nil {
			return resp, err
		}

		_, err := uc.lifecycle.Timeout(ctx, domain.SystemActor, r.ID)
		switch {
		case err == nil:
			resp.Expired = append(resp.Expired, r.ID)
		case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, reservations.ErrReservationNotFound):
			uc.logger.Info("ExpireReservations: reservation id=%d changed during sweep, skipped", r.ID)
			resp.Skipped = append(resp.Skipped, r.ID)
		default:
			uc.logger.Error("ExpireReservations: failed to expire reservation id=%d: %v", r.ID, err)
		}
	}

	uc.logger.Info("ExpireReservations: expired %d, skipped %d", len(resp.Expired), len(resp.Skipped))
	return resp, nil
}
