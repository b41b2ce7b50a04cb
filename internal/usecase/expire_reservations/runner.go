package expire_reservations

import (
	"context"
	"time"
)

// Run запускает периодическую отмену просроченных бронирований до отмены ctx
func (uc *UseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	uc.logger.Info("ExpireReservations: sweeper started, interval=%s timeout=%s", interval, uc.cfg.AwaitingPaymentTimeout)

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("ExpireReservations: sweeper stopped")
			return
		case <-ticker.C:
			if _, err := uc.Execute(ctx); err != nil && ctx.Err() == nil {
				uc.logger.Error("ExpireReservations: sweep failed: %v", err)
			}
		}
	}
}
