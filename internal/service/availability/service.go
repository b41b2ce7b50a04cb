package availability

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	windowRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/availability"
	"github.com/m04kA/SMC-ConsultationService/internal/service/availability/models"
	"github.com/m04kA/SMC-ConsultationService/internal/slots"
)

// Config параметры сервиса окон доступности
type Config struct {
	DurationMinutes int
	Location        *time.Location
}

// Service сервис окон доступности
type Service struct {
	windowRepo      WindowRepository
	reservationRepo ReservationRepository
	txManager       TransactionManager
	notifier        Notifier
	metrics         TransitionMetrics
	timeProvider    TimeProvider
	cfg             Config
	logger          Logger
}

// NewService создает новый экземпляр сервиса окон доступности
// notifier и metrics могут быть nil
func NewService(
	windowRepo WindowRepository,
	reservationRepo ReservationRepository,
	txManager TransactionManager,
	notifier Notifier,
	metrics TransitionMetrics,
	cfg Config,
	logger Logger,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		windowRepo:      windowRepo,
		reservationRepo: reservationRepo,
		txManager:       txManager,
		notifier:        notifier,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		cfg:             cfg,
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Create создает окно доступности
// Профессионал создает окно для себя, администратор - для указанного professionalId
func (s *Service) Create(ctx context.Context, actor domain.Actor, req *models.CreateWindowRequest) (*models.WindowResponse, error) {
	professionalID, err := s.resolveProfessional(actor, req.ProfessionalID)
	if err != nil {
		s.logger.Warn("Create: actor=%d role=%s cannot create windows: %v", actor.UserID, actor.Role, err)
		return nil, err
	}

	s.logger.Info("Create: professional=%d date=%s %s-%s", professionalID, req.Date, req.StartTime, req.EndTime)

	window, err := s.parseAndValidate(&req.WindowRequest)
	if err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}
	window.ProfessionalID = professionalID

	var created *domain.AvailabilityWindow
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.checkOverlap(ctx, window, 0); err != nil {
			return err
		}

		var err error
		created, err = s.windowRepo.Create(ctx, window)
		if err != nil {
			return fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, s.failure("Create", err)
	}

	s.logger.Info("Create: window id=%d created for professional=%d", created.ID, professionalID)
	return models.FromDomainWindow(created), nil
}

// Update изменяет дату и границы окна
// Запрещено, если начало активного бронирования перестанет быть слотом нового окна
func (s *Service) Update(ctx context.Context, actor domain.Actor, windowID int64, req *models.UpdateWindowRequest) (*models.WindowResponse, error) {
	s.logger.Info("Update: window id=%d by actor=%d date=%s %s-%s", windowID, actor.UserID, req.Date, req.StartTime, req.EndTime)

	changes, err := s.parseAndValidate(&req.WindowRequest)
	if err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, err
	}

	var updated *domain.AvailabilityWindow
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		window, err := s.loadOwned(ctx, actor, windowID)
		if err != nil {
			return err
		}

		window.Date = changes.Date
		window.StartTime = changes.StartTime
		window.EndTime = changes.EndTime

		if err := s.checkOverlap(ctx, window, window.ID); err != nil {
			return err
		}

		active, err := s.reservationRepo.ListByWindow(ctx, window.ID, true)
		if err != nil {
			return fmt.Errorf("%w: Update - list reservations: %v", ErrInternal, err)
		}
		for _, r := range active {
			if _, ok := slots.Contains(window, s.cfg.DurationMinutes, r.StartTime); !ok {
				return fmt.Errorf("%w: reservation id=%d at %s would no longer match a slot",
					ErrWindowHasActiveReservations, r.ID, r.StartTime)
			}
		}

		updated, err = s.windowRepo.Update(ctx, window)
		if err != nil {
			if errors.Is(err, windowRepo.ErrWindowNotFound) {
				return ErrWindowNotFound
			}
			return fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, s.failure("Update", err)
	}

	s.logger.Info("Update: window id=%d updated", windowID)
	return models.FromDomainWindow(updated), nil
}

// Delete мягко удаляет окно
// Активные бронирования блокируют удаление. С cascade=true бронирования,
// ожидающие подтверждения или оплаты, отменяются; оплаченные и подтверждённые всё равно блокируют.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, windowID int64, cascade bool) (*models.DeleteWindowResponse, error) {
	s.logger.Info("Delete: window id=%d by actor=%d cascade=%t", windowID, actor.UserID, cascade)

	var cancelled []cancelledReservation
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		cancelled = nil

		if _, err := s.loadOwned(ctx, actor, windowID); err != nil {
			return err
		}

		active, err := s.reservationRepo.ListByWindow(ctx, windowID, true)
		if err != nil {
			return fmt.Errorf("%w: Delete - list reservations: %v", ErrInternal, err)
		}

		if len(active) > 0 && !cascade {
			return fmt.Errorf("%w: %d active reservations, use cascade", ErrWindowHasActiveReservations, len(active))
		}
		for _, r := range active {
			if !slices.Contains(domain.CascadeCancellableStatuses, r.Status) {
				return fmt.Errorf("%w: reservation id=%d is %s", ErrWindowHasActiveReservations, r.ID, r.Status)
			}
		}

		for _, r := range active {
			to, _, err := domain.NextStatus(r.Status, domain.ActionCancel)
			if err != nil {
				return err
			}
			updated, err := s.reservationRepo.UpdateStatus(ctx, r.ID, r.Status, to)
			if err != nil {
				return fmt.Errorf("%w: Delete - cancel reservation id=%d: %v", ErrInternal, r.ID, err)
			}
			cancelled = append(cancelled, cancelledReservation{reservation: updated, from: r.Status})
		}

		if err := s.windowRepo.Delete(ctx, windowID); err != nil {
			if errors.Is(err, windowRepo.ErrWindowNotFound) {
				return ErrWindowNotFound
			}
			return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, s.failure("Delete", err)
	}

	resp := &models.DeleteWindowResponse{WindowID: windowID, CancelledReservationIDs: make([]int64, 0, len(cancelled))}
	for _, c := range cancelled {
		s.publish(ctx, c.reservation, c.from, actor)
		resp.CancelledReservationIDs = append(resp.CancelledReservationIDs, c.reservation.ID)
	}

	s.logger.Info("Delete: window id=%d deleted, cancelled %d reservations", windowID, len(cancelled))
	return resp, nil
}

// GetByID получает окно по ID
func (s *Service) GetByID(ctx context.Context, windowID int64) (*models.WindowResponse, error) {
	window, err := s.windowRepo.GetByID(ctx, windowID)
	if err != nil {
		if errors.Is(err, windowRepo.ErrWindowNotFound) {
			s.logger.Warn("GetByID: window id=%d not found", windowID)
			return nil, ErrWindowNotFound
		}
		s.logger.Error("GetByID: repository error for window id=%d: %v", windowID, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainWindow(window), nil
}

// ListByProfessional получает окна профессионала за период
func (s *Service) ListByProfessional(ctx context.Context, professionalID int64, req *models.ListWindowsRequest) (*models.WindowListResponse, error) {
	s.logger.Info("ListByProfessional: fetching windows for professional=%d", professionalID)

	if req.From != nil && req.To != nil {
		if req.To.Before(*req.From) {
			s.logger.Warn("ListByProfessional: invalid range for professional=%d", professionalID)
			return nil, fmt.Errorf("%w: 'to' is before 'from'", ErrInvalidInput)
		}
		if req.To.Sub(*req.From) > domain.MaxListRangeDays*24*time.Hour {
			s.logger.Warn("ListByProfessional: range too large for professional=%d", professionalID)
			return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidInput, domain.MaxListRangeDays)
		}
	}

	list, err := s.windowRepo.ListByProfessional(ctx, professionalID, req.From, req.To)
	if err != nil {
		s.logger.Error("ListByProfessional: repository error for professional=%d: %v", professionalID, err)
		return nil, fmt.Errorf("%w: ListByProfessional - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListByProfessional: found %d windows for professional=%d", len(list), professionalID)
	return models.FromDomainWindows(list), nil
}

type cancelledReservation struct {
	reservation *domain.Reservation
	from        domain.ReservationStatus
}

// resolveProfessional определяет профессионала, для которого создается окно
func (s *Service) resolveProfessional(actor domain.Actor, requested *int64) (int64, error) {
	switch {
	case actor.IsAdmin():
		if requested == nil || *requested <= 0 {
			return 0, fmt.Errorf("%w: professionalId is required for admin", ErrInvalidInput)
		}
		return *requested, nil
	case actor.IsProfessional():
		if requested != nil && *requested != actor.UserID {
			return 0, ErrAccessDenied
		}
		return actor.UserID, nil
	default:
		return 0, ErrAccessDenied
	}
}

// parseAndValidate разбирает запрос и проверяет окно: границы, длительность, дата не в прошлом
func (s *Service) parseAndValidate(req *models.WindowRequest) (*domain.AvailabilityWindow, error) {
	window, err := req.ToDomain(s.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := window.Validate(s.cfg.DurationMinutes); err != nil {
		return nil, err
	}

	now := s.timeProvider.Now().In(s.cfg.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	if window.Date.Before(today) {
		return nil, fmt.Errorf("%w: %s", ErrWindowInPast, window.Date.Format(domain.DateFormat))
	}

	return window, nil
}

func (s *Service) checkOverlap(ctx context.Context, window *domain.AvailabilityWindow, excludeID int64) error {
	overlapping, err := s.windowRepo.ListOverlapping(ctx, window.ProfessionalID, window.Date,
		window.StartTime, window.EndTime, excludeID)
	if err != nil {
		return fmt.Errorf("%w: checkOverlap - repository error: %v", ErrInternal, err)
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("%w: window id=%d %s-%s", ErrWindowOverlap,
			overlapping[0].ID, overlapping[0].StartTime, overlapping[0].EndTime)
	}
	return nil
}

// loadOwned загружает окно и проверяет, что актор может им управлять
func (s *Service) loadOwned(ctx context.Context, actor domain.Actor, windowID int64) (*domain.AvailabilityWindow, error) {
	window, err := s.windowRepo.GetByID(ctx, windowID)
	if err != nil {
		if errors.Is(err, windowRepo.ErrWindowNotFound) {
			return nil, ErrWindowNotFound
		}
		return nil, fmt.Errorf("%w: loadOwned - repository error: %v", ErrInternal, err)
	}
	if !actor.CanManageProfessional(window.ProfessionalID) {
		return nil, ErrAccessDenied
	}
	return window, nil
}

func (s *Service) publish(ctx context.Context, r *domain.Reservation, from domain.ReservationStatus, actor domain.Actor) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(domain.ActionCancel), string(from), string(r.Status))
	}
	if s.notifier == nil {
		return
	}
	event := domain.NewLifecycleEvent(r, domain.ActionCancel, from, actor, s.timeProvider.Now())
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Error("publish: failed to notify cancel for reservation id=%d: %v", r.ID, err)
	}
}

// failure логирует ошибку операции; ошибки вне таксономии сервиса (транзакция, БД) становятся ErrInternal
func (s *Service) failure(op string, err error) error {
	known := []error{
		ErrWindowNotFound, ErrAccessDenied, ErrInvalidInput, ErrWindowInPast,
		ErrWindowOverlap, ErrWindowHasActiveReservations, domain.ErrInvalidWindow,
	}
	for _, target := range known {
		if errors.Is(err, target) {
			s.logger.Warn("%s: %v", op, err)
			return err
		}
	}

	s.logger.Error("%s: %v", op, err)
	if errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %s - %v", ErrInternal, op, err)
}
