package confirm_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/reservation"
)

// UseCase use case для обработки подтверждений оплаты (webhook и клиентский редирект)
type UseCase struct {
	reservationRepo ReservationRepository
	lifecycle       Lifecycle
	gateways        map[domain.PaymentProvider]PaymentGateway
	tracker         ProcessedTracker
	metrics         GatewayMetrics
	cfg             Config
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
// tracker и metrics могут быть nil: без tracker дубликаты отсекает идемпотентность pay
func NewUseCase(
	reservationRepo ReservationRepository,
	lifecycle Lifecycle,
	gateways []PaymentGateway,
	tracker ProcessedTracker,
	metrics GatewayMetrics,
	cfg Config,
	logger Logger,
) *UseCase {
	byProvider := make(map[domain.PaymentProvider]PaymentGateway, len(gateways))
	for _, g := range gateways {
		byProvider[g.Provider()] = g
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		lifecycle:       lifecycle,
		gateways:        byProvider,
		tracker:         tracker,
		metrics:         metrics,
		cfg:             cfg,
		logger:          logger,
	}
}

// HandleWebhook проверяет и обрабатывает webhook шлюза
// Ошибка возвращается только когда шлюзу стоит повторить доставку (или webhook невалиден).
// Оплата отменённого бронирования логируется и подтверждается шлюзу как принятая.
func (uc *UseCase) HandleWebhook(ctx context.Context, req *WebhookRequest) (*Result, error) {
	gateway, ok := uc.gateways[req.Provider]
	if !ok {
		uc.logger.Warn("HandleWebhook: provider %s is not configured", req.Provider)
		return nil, ErrProviderNotConfigured
	}

	confirmation, err := gateway.ParseWebhook(ctx, req.Payload, req.Header)
	if err != nil {
		uc.logger.Warn("HandleWebhook: %s webhook rejected: %v", req.Provider, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if confirmation == nil {
		// Событие, которое ядро не обрабатывает
		uc.logger.Info("HandleWebhook: %s event ignored", req.Provider)
		return &Result{}, nil
	}

	uc.logger.Info("HandleWebhook: %s event=%s intent=%s reservation=%d outcome=%s",
		confirmation.Provider, confirmation.EventID, confirmation.IntentID, confirmation.ReservationID, confirmation.Outcome)

	if confirmation.EventID != "" && uc.tracker != nil {
		processed, err := uc.tracker.AlreadyProcessed(ctx, string(confirmation.Provider), confirmation.EventID)
		if err != nil {
			// Без трекера продолжаем: повторный pay идемпотентен
			uc.logger.Warn("HandleWebhook: processed lookup failed for event=%s: %v", confirmation.EventID, err)
		} else if processed {
			uc.logger.Info("HandleWebhook: event=%s already processed", confirmation.EventID)
			return &Result{ReservationID: confirmation.ReservationID, Outcome: confirmation.Outcome, Duplicate: true}, nil
		}
	}

	result, err := uc.apply(ctx, confirmation)
	switch {
	case err == nil, errors.Is(err, domain.ErrIllegalTransition):
	case errors.Is(err, ErrReservationNotFound):
		// Платёж не относится к нашим бронированиям: повторная доставка не поможет
		result = &Result{Outcome: confirmation.Outcome}
	default:
		return nil, err
	}

	if confirmation.EventID != "" && uc.tracker != nil {
		if _, err := uc.tracker.MarkProcessed(ctx, string(confirmation.Provider), confirmation.EventID); err != nil {
			uc.logger.Warn("HandleWebhook: failed to mark event=%s processed: %v", confirmation.EventID, err)
		}
	}

	return result, nil
}

// ConfirmByClient перепроверяет платёж у шлюза после возврата клиента и применяет исход
func (uc *UseCase) ConfirmByClient(ctx context.Context, req *ClientRequest) (*Result, error) {
	uc.logger.Info("ConfirmByClient: reservation=%d by user=%d", req.ReservationID, req.Actor.UserID)

	if req.ReservationID <= 0 {
		return nil, fmt.Errorf("%w: reservationID must be positive", ErrInvalidInput)
	}

	reservation, err := uc.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("ConfirmByClient: reservation id=%d not found", req.ReservationID)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("ConfirmByClient: failed to get reservation id=%d: %v", req.ReservationID, err)
		return nil, fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
	}

	if !reservation.IsOwnedBy(req.Actor.UserID) {
		uc.logger.Warn("ConfirmByClient: user=%d is not the owner of reservation id=%d", req.Actor.UserID, reservation.ID)
		return nil, ErrAccessDenied
	}

	if reservation.PaymentProvider == nil || reservation.PaymentIntentID == nil {
		uc.logger.Warn("ConfirmByClient: reservation id=%d has no payment intent", reservation.ID)
		return nil, ErrNoPaymentIntent
	}

	gateway, ok := uc.gateways[*reservation.PaymentProvider]
	if !ok {
		uc.logger.Error("ConfirmByClient: provider %s of reservation id=%d is not configured", *reservation.PaymentProvider, reservation.ID)
		return nil, ErrProviderNotConfigured
	}

	outcome, err := uc.queryOutcome(ctx, gateway, *reservation.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	result, err := uc.apply(ctx, &domain.PaymentConfirmation{
		Provider:      gateway.Provider(),
		ReservationID: reservation.ID,
		IntentID:      *reservation.PaymentIntentID,
		Outcome:       outcome,
	})
	if err != nil {
		return nil, err
	}

	if outcome == domain.OutcomeFailed || outcome == domain.OutcomeCancelled {
		return result, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, outcome)
	}

	return result, nil
}

func (uc *UseCase) queryOutcome(ctx context.Context, gateway PaymentGateway, intentID string) (domain.PaymentOutcome, error) {
	callCtx := ctx
	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	outcome, err := gateway.ConfirmPayment(callCtx, intentID)
	if uc.metrics != nil {
		uc.metrics.ObserveGatewayCall(string(gateway.Provider()), "confirm", err)
	}
	if err != nil {
		uc.logger.Error("ConfirmByClient: gateway %s failed for intent %s: %v", gateway.Provider(), intentID, err)
		if errors.Is(err, domain.ErrPaymentFailed) || errors.Is(err, domain.ErrGatewayUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	return outcome, nil
}

// apply применяет исход платежа к бронированию
//   - SUCCEEDED -> pay (повтор не меняет статус)
//   - FAILED / CANCELLED -> только лог, пользователь может повторить оплату
//   - PENDING -> ничего
func (uc *UseCase) apply(ctx context.Context, confirmation *domain.PaymentConfirmation) (*Result, error) {
	reservation, err := uc.findReservation(ctx, confirmation)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ReservationID: reservation.ID,
		Outcome:       confirmation.Outcome,
		Status:        reservation.Status,
	}

	switch confirmation.Outcome {
	case domain.OutcomeSucceeded:
		transition, err := uc.lifecycle.Pay(ctx, domain.SystemActor, reservation.ID)
		if err != nil {
			if errors.Is(err, domain.ErrIllegalTransition) {
				// Отмена или отказ побеждают: оплату не применяем, возврат вне рамок сервиса
				uc.logger.Warn("ConfirmPayment: late payment intent=%s for reservation id=%d in status %s rejected",
					confirmation.IntentID, reservation.ID, reservation.Status)
				result.Rejected = true
				return result, err
			}
			uc.logger.Error("ConfirmPayment: failed to apply payment to reservation id=%d: %v", reservation.ID, err)
			return nil, fmt.Errorf("%w: failed to apply payment: %v", ErrInternal, err)
		}
		result.Status = transition.Reservation.Status
		result.Noop = transition.Noop
		uc.logger.Info("ConfirmPayment: reservation id=%d is %s (noop=%t)", reservation.ID, result.Status, result.Noop)

	case domain.OutcomeFailed, domain.OutcomeCancelled:
		uc.logger.Warn("ConfirmPayment: payment intent=%s for reservation id=%d ended %s, reservation unchanged",
			confirmation.IntentID, reservation.ID, confirmation.Outcome)

	default:
		uc.logger.Info("ConfirmPayment: payment intent=%s for reservation id=%d is %s",
			confirmation.IntentID, reservation.ID, confirmation.Outcome)
	}

	return result, nil
}

// findReservation ищет бронирование по идентификатору платежа, затем по ID из метаданных
func (uc *UseCase) findReservation(ctx context.Context, confirmation *domain.PaymentConfirmation) (*domain.Reservation, error) {
	if confirmation.IntentID != "" {
		reservation, err := uc.reservationRepo.GetByPaymentIntent(ctx, confirmation.Provider, confirmation.IntentID)
		if err == nil {
			return reservation, nil
		}
		if !errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Error("ConfirmPayment: failed to find reservation by intent=%s: %v", confirmation.IntentID, err)
			return nil, fmt.Errorf("%w: failed to find reservation: %v", ErrInternal, err)
		}
	}

	if confirmation.ReservationID <= 0 {
		uc.logger.Warn("ConfirmPayment: no reservation for intent=%s", confirmation.IntentID)
		return nil, ErrReservationNotFound
	}

	reservation, err := uc.reservationRepo.GetByID(ctx, confirmation.ReservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("ConfirmPayment: reservation id=%d not found", confirmation.ReservationID)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("ConfirmPayment: failed to get reservation id=%d: %v", confirmation.ReservationID, err)
		return nil, fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
	}

	// Пользователь мог создать новый платёж и оплатить предыдущий: исход применяется по id бронирования
	if reservation.PaymentIntentID != nil && confirmation.IntentID != "" && *reservation.PaymentIntentID != confirmation.IntentID {
		uc.logger.Warn("ConfirmPayment: intent=%s is not the current intent=%s of reservation id=%d, applying by reservation id",
			confirmation.IntentID, *reservation.PaymentIntentID, reservation.ID)
	}

	return reservation, nil
}
