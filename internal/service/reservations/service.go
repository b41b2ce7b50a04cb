package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
)

// Service сервис жизненного цикла бронирований
type Service struct {
	reservationRepo ReservationRepository
	notifier        Notifier
	metrics         TransitionMetrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований
// notifier и metrics могут быть nil
func NewService(
	reservationRepo ReservationRepository,
	notifier Notifier,
	metrics TransitionMetrics,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		notifier:        notifier,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// authorizer проверяет право актора применить действие к бронированию
type authorizer func(actor domain.Actor, r *domain.Reservation) bool

func canManage(actor domain.Actor, r *domain.Reservation) bool {
	return actor.CanManageProfessional(r.ProfessionalID)
}

func canActForOwner(actor domain.Actor, r *domain.Reservation) bool {
	return actor.CanActForUser(r.UserID)
}

func isSystem(actor domain.Actor, _ *domain.Reservation) bool {
	return actor.IsAdmin()
}

// Approve подтверждает бронирование профессионалом
// pending_professional_approval -> awaiting_payment, paid -> approved
func (s *Service) Approve(ctx context.Context, actor domain.Actor, id int64) (*models.ReservationResponse, error) {
	result, err := s.apply(ctx, "Approve", actor, id, domain.ActionApprove, canManage)
	if err != nil {
		return nil, err
	}
	return models.FromDomainReservation(result.Reservation), nil
}

// Refuse отклоняет бронирование профессионалом
func (s *Service) Refuse(ctx context.Context, actor domain.Actor, id int64) (*models.ReservationResponse, error) {
	result, err := s.apply(ctx, "Refuse", actor, id, domain.ActionRefuse, canManage)
	if err != nil {
		return nil, err
	}
	return models.FromDomainReservation(result.Reservation), nil
}

// Cancel отменяет бронирование владельцем (или администратором)
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id int64) (*models.ReservationResponse, error) {
	result, err := s.apply(ctx, "Cancel", actor, id, domain.ActionCancel, canActForOwner)
	if err != nil {
		return nil, err
	}
	return models.FromDomainReservation(result.Reservation), nil
}

// Pay отмечает бронирование оплаченным по подтверждению платёжного шлюза
// Повторное подтверждение оплаты не меняет статус (Noop = true)
func (s *Service) Pay(ctx context.Context, actor domain.Actor, id int64) (*models.TransitionResult, error) {
	return s.apply(ctx, "Pay", actor, id, domain.ActionPay, isSystem)
}

// Timeout отменяет бронирование, не оплаченное вовремя
func (s *Service) Timeout(ctx context.Context, actor domain.Actor, id int64) (*models.TransitionResult, error) {
	return s.apply(ctx, "Timeout", actor, id, domain.ActionTimeout, isSystem)
}

// apply применяет действие жизненного цикла:
// загрузка -> проверка прав -> вычисление перехода -> CAS в хранилище -> событие и метрика
func (s *Service) apply(
	ctx context.Context,
	op string,
	actor domain.Actor,
	id int64,
	action domain.Action,
	authorize authorizer,
) (*models.TransitionResult, error) {
	s.logger.Info("%s: reservation id=%d by actor=%d role=%s", op, id, actor.UserID, actor.Role)

	reservation, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if !authorize(actor, reservation) {
		s.logger.Warn("%s: access denied for actor=%d to reservation id=%d", op, actor.UserID, id)
		return nil, ErrAccessDenied
	}

	from := reservation.Status
	to, noop, err := domain.NextStatus(from, action)
	if err != nil {
		s.logger.Warn("%s: illegal transition for reservation id=%d: %v", op, id, err)
		return nil, err
	}
	if noop {
		s.logger.Info("%s: reservation id=%d already in status=%s, nothing to do", op, id, from)
		return &models.TransitionResult{Reservation: reservation, From: from, Noop: true}, nil
	}

	updated, err := s.reservationRepo.UpdateStatus(ctx, id, from, to)
	if errors.Is(err, reservationRepo.ErrStatusConflict) {
		// Статус изменился конкурентно: перечитываем и оцениваем действие заново один раз
		s.logger.Warn("%s: status of reservation id=%d changed concurrently, re-evaluating", op, id)

		current, loadErr := s.load(ctx, op, id)
		if loadErr != nil {
			return nil, loadErr
		}
		if _, noop, nextErr := domain.NextStatus(current.Status, action); nextErr == nil && noop {
			s.logger.Info("%s: reservation id=%d already in status=%s after concurrent update", op, id, current.Status)
			return &models.TransitionResult{Reservation: current, From: current.Status, Noop: true}, nil
		}
		return nil, fmt.Errorf("%w: %s from %q (concurrent update)", domain.ErrIllegalTransition, action, current.Status)
	}
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("%s: reservation id=%d disappeared", op, id)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("%s: failed to update status of reservation id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	s.publish(ctx, updated, action, from, actor)

	s.logger.Info("%s: reservation id=%d moved %s -> %s", op, id, from, to)
	return &models.TransitionResult{Reservation: updated, From: from}, nil
}

// publish отправляет событие перехода и учитывает метрику
// Ошибка отправки только логируется: переход уже зафиксирован
func (s *Service) publish(ctx context.Context, r *domain.Reservation, action domain.Action, from domain.ReservationStatus, actor domain.Actor) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(action), string(from), string(r.Status))
	}
	if s.notifier == nil {
		return
	}

	event := domain.NewLifecycleEvent(r, action, from, actor, s.timeProvider.Now())
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Error("publish: failed to notify %s for reservation id=%d: %v", action, r.ID, err)
	}
}

// GetByID получает бронирование по ID
// Доступно владельцу, профессионалу окна и администратору
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id int64) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d for actor=%d", id, actor.UserID)

	reservation, err := s.load(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if !actor.CanActForUser(reservation.UserID) && !actor.CanManageProfessional(reservation.ProfessionalID) {
		s.logger.Warn("GetByID: access denied for actor=%d to reservation id=%d", actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainReservation(reservation), nil
}

// ListByUser получает бронирования пользователя (опционально по статусу)
func (s *Service) ListByUser(ctx context.Context, userID int64, req *models.ListReservationsRequest) (*models.ReservationListResponse, error) {
	s.logger.Info("ListByUser: fetching reservations for user=%d by actor=%d", userID, req.Actor.UserID)

	if !req.Actor.CanActForUser(userID) {
		s.logger.Warn("ListByUser: access denied for actor=%d to user=%d", req.Actor.UserID, userID)
		return nil, ErrAccessDenied
	}

	status, err := models.ParseStatusFilter(req.Status)
	if err != nil {
		s.logger.Warn("ListByUser: invalid status filter: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	list, err := s.reservationRepo.ListByUser(ctx, userID, status)
	if err != nil {
		s.logger.Error("ListByUser: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: ListByUser - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListByUser: found %d reservations for user=%d", len(list), userID)
	return models.FromDomainReservations(list), nil
}

// ListByProfessional получает бронирования профессионала (опционально по статусу)
func (s *Service) ListByProfessional(ctx context.Context, professionalID int64, req *models.ListReservationsRequest) (*models.ReservationListResponse, error) {
	s.logger.Info("ListByProfessional: fetching reservations for professional=%d by actor=%d", professionalID, req.Actor.UserID)

	if !req.Actor.CanManageProfessional(professionalID) {
		s.logger.Warn("ListByProfessional: access denied for actor=%d to professional=%d", req.Actor.UserID, professionalID)
		return nil, ErrAccessDenied
	}

	status, err := models.ParseStatusFilter(req.Status)
	if err != nil {
		s.logger.Warn("ListByProfessional: invalid status filter: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	list, err := s.reservationRepo.ListByProfessional(ctx, professionalID, status)
	if err != nil {
		s.logger.Error("ListByProfessional: repository error for professional=%d: %v", professionalID, err)
		return nil, fmt.Errorf("%w: ListByProfessional - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListByProfessional: found %d reservations for professional=%d", len(list), professionalID)
	return models.FromDomainReservations(list), nil
}

func (s *Service) load(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("%s: reservation id=%d not found", op, id)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return reservation, nil
}
