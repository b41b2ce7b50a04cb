package expire_reservations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

// store хранилище бронирований в памяти; beforeUpdate позволяет вклиниться конкурентной оплате
type store struct {
	mu           sync.Mutex
	items        map[int64]*domain.Reservation
	listErr      error
	beforeUpdate func(id int64)
}

func (s *store) ListAwaitingPaymentBefore(_ context.Context, before time.Time, limit uint64) ([]*domain.Reservation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Reservation
	for id := int64(1); id <= int64(len(s.items)); id++ {
		r, ok := s.items[id]
		if !ok || r.Status != domain.StatusAwaitingPayment || !r.StatusChangedAt.Before(before) {
			continue
		}
		copied := *r
		out = append(out, &copied)
		if uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (s *store) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *store) UpdateStatus(_ context.Context, id int64, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	if s.beforeUpdate != nil {
		hook := s.beforeUpdate
		s.beforeUpdate = nil
		hook(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	if r.Status != from {
		return nil, reservationRepo.ErrStatusConflict
	}
	r.Status = to
	copied := *r
	return &copied, nil
}

func (s *store) ListByUser(context.Context, int64, *domain.ReservationStatus) ([]*domain.Reservation, error) {
	return nil, nil
}

func (s *store) ListByProfessional(context.Context, int64, *domain.ReservationStatus) ([]*domain.Reservation, error) {
	return nil, nil
}

func (s *store) set(id int64, status domain.ReservationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id].Status = status
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newStore() *store {
	return &store{items: map[int64]*domain.Reservation{
		// ждёт оплату 40 минут
		1: {ID: 1, UserID: 100, ProfessionalID: 7, Status: domain.StatusAwaitingPayment, StatusChangedAt: now.Add(-40 * time.Minute)},
		// ждёт оплату 10 минут
		2: {ID: 2, UserID: 100, ProfessionalID: 7, Status: domain.StatusAwaitingPayment, StatusChangedAt: now.Add(-10 * time.Minute)},
		// давно ждёт подтверждения профессионала
		3: {ID: 3, UserID: 200, ProfessionalID: 7, Status: domain.StatusPendingProfessionalApproval, StatusChangedAt: now.Add(-24 * time.Hour)},
		4: {ID: 4, UserID: 200, ProfessionalID: 7, Status: domain.StatusAwaitingPayment, StatusChangedAt: now.Add(-2 * time.Hour)},
	}}
}

func newUseCase(s *store, cfg Config) *UseCase {
	if cfg.AwaitingPaymentTimeout == 0 {
		cfg.AwaitingPaymentTimeout = 30 * time.Minute
	}
	lifecycle := reservations.NewService(s, nil, nil, nopLogger{})
	return NewUseCase(s, lifecycle, cfg, nopLogger{}).WithTimeProvider(fixedTime{now: now})
}

func TestExecute_ExpiresOnlyStaleAwaitingPayment(t *testing.T) {
	s := newStore()
	uc := newUseCase(s, Config{})

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, resp.Expired)
	assert.Empty(t, resp.Skipped)
	assert.Equal(t, domain.StatusCancelled, s.items[1].Status)
	assert.Equal(t, domain.StatusAwaitingPayment, s.items[2].Status)
	assert.Equal(t, domain.StatusPendingProfessionalApproval, s.items[3].Status)
	assert.Equal(t, domain.StatusCancelled, s.items[4].Status)
}

func TestExecute_PaymentWinsOverTimeout(t *testing.T) {
	s := newStore()
	s.beforeUpdate = func(id int64) { s.set(id, domain.StatusPaid) }
	uc := newUseCase(s, Config{})

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, resp.Skipped)
	assert.Equal(t, []int64{4}, resp.Expired)
	assert.Equal(t, domain.StatusPaid, s.items[1].Status)
}

func TestExecute_BatchSize(t *testing.T) {
	s := newStore()
	uc := newUseCase(s, Config{BatchSize: 1})

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, resp.Expired)

	resp, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, resp.Expired)
}

func TestExecute_NothingToExpire(t *testing.T) {
	s := newStore()
	uc := newUseCase(s, Config{AwaitingPaymentTimeout: 3 * time.Hour})

	resp, err := uc.Execute(context.Background())

	require.NoError(t, err)
	assert.Empty(t, resp.Expired)
}

func TestExecute_ListError(t *testing.T) {
	s := newStore()
	s.listErr = errors.New("db down")
	uc := newUseCase(s, Config{})

	_, err := uc.Execute(context.Background())

	assert.ErrorIs(t, err, ErrInternal)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := newStore()
	uc := newUseCase(s, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		uc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.items[1].Status == domain.StatusCancelled
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
