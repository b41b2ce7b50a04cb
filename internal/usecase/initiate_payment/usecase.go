package initiate_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/reservation"
)

// UseCase use case для создания платежа по бронированию
type UseCase struct {
	reservationRepo ReservationRepository
	gateway         PaymentGateway
	metrics         GatewayMetrics
	cfg             Config
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
// metrics может быть nil
func NewUseCase(
	reservationRepo ReservationRepository,
	gateway PaymentGateway,
	metrics GatewayMetrics,
	cfg Config,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		gateway:         gateway,
		metrics:         metrics,
		cfg:             cfg,
		logger:          logger,
	}
}

// Execute создает платёж у шлюза и сохраняет снимок платежа в бронировании
// Ошибка шлюза оставляет бронирование в awaiting_payment: пользователь может повторить запрос.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("InitiatePayment: reservation=%d by user=%d via %s", req.ReservationID, req.Actor.UserID, uc.gateway.Provider())

	// 1. Валидация входных данных
	if req.ReservationID <= 0 {
		uc.logger.Warn("InitiatePayment: invalid reservation id=%d", req.ReservationID)
		return nil, fmt.Errorf("%w: reservationID must be positive", ErrInvalidInput)
	}

	// 2. Получаем бронирование
	reservation, err := uc.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("InitiatePayment: reservation id=%d not found", req.ReservationID)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("InitiatePayment: failed to get reservation id=%d: %v", req.ReservationID, err)
		return nil, fmt.Errorf("%w: failed to get reservation: %v", ErrInternal, err)
	}

	// 3. Оплачивает только владелец
	if !reservation.IsOwnedBy(req.Actor.UserID) {
		uc.logger.Warn("InitiatePayment: user=%d is not the owner of reservation id=%d", req.Actor.UserID, reservation.ID)
		return nil, ErrAccessDenied
	}

	// 4. Оплата возможна только после подтверждения профессионалом
	if reservation.Status != domain.StatusAwaitingPayment {
		uc.logger.Warn("InitiatePayment: reservation id=%d is %s, payment not allowed", reservation.ID, reservation.Status)
		return nil, fmt.Errorf("%w: payment from %q", domain.ErrIllegalTransition, reservation.Status)
	}

	// 5. Создаем платёж у шлюза с таймаутом
	intent, err := uc.createIntent(ctx, reservation)
	if err != nil {
		return nil, err
	}

	// 6. Сохраняем снимок платежа
	updated, err := uc.reservationRepo.SetPaymentIntent(ctx, reservation.ID, uc.gateway.Provider(), intent.ID, intent.AmountCents, intent.Currency)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrStatusConflict) {
			uc.logger.Warn("InitiatePayment: reservation id=%d left awaiting_payment while creating intent %s", reservation.ID, intent.ID)
			return nil, fmt.Errorf("%w: reservation id=%d is no longer awaiting payment", domain.ErrIllegalTransition, reservation.ID)
		}
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("InitiatePayment: failed to store intent %s for reservation id=%d: %v", intent.ID, reservation.ID, err)
		return nil, fmt.Errorf("%w: failed to store payment intent: %v", ErrInternal, err)
	}

	uc.logger.Info("InitiatePayment: reservation id=%d has %s intent %s", reservation.ID, intent.Provider, intent.ID)
	return &Response{Reservation: updated, Intent: intent}, nil
}

func (uc *UseCase) createIntent(ctx context.Context, reservation *domain.Reservation) (*domain.PaymentIntent, error) {
	callCtx := ctx
	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	intent, err := uc.gateway.CreatePaymentIntent(callCtx, domain.PaymentIntentRequest{
		ReservationID:  reservation.ID,
		AmountCents:    uc.cfg.PriceCents,
		Currency:       uc.cfg.Currency,
		Description:    fmt.Sprintf("Consultation #%d at %s", reservation.ID, reservation.StartTime),
		IdempotencyKey: uc.idempotencyKey(reservation),
	})
	if uc.metrics != nil {
		uc.metrics.ObserveGatewayCall(string(uc.gateway.Provider()), "create_intent", err)
	}
	if err != nil {
		uc.logger.Error("InitiatePayment: gateway %s failed for reservation id=%d: %v", uc.gateway.Provider(), reservation.ID, err)
		if errors.Is(err, domain.ErrInvalidAmount) || errors.Is(err, domain.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	return intent, nil
}

// idempotencyKey одинаков для повторов одной попытки оплаты.
// Новая попытка начинается, когда в бронировании сохранён очередной платёж.
func (uc *UseCase) idempotencyKey(reservation *domain.Reservation) string {
	previous := ""
	if reservation.PaymentIntentID != nil {
		previous = *reservation.PaymentIntentID
	}
	name := fmt.Sprintf("intent:%d:%s:%d:%s", reservation.ID, previous, uc.cfg.PriceCents, uc.cfg.Currency)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
