package confirm_payment

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/cache/processed"
	reservationRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations"
	"github.com/m04kA/SMC-ConsultationService/pkg/ptr"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type memoryStore struct {
	mu    sync.Mutex
	items map[int64]*domain.Reservation
}

func newStore(list ...*domain.Reservation) *memoryStore {
	s := &memoryStore{items: make(map[int64]*domain.Reservation)}
	for _, r := range list {
		s.items[r.ID] = r
	}
	return s
}

func (s *memoryStore) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *memoryStore) GetByPaymentIntent(_ context.Context, provider domain.PaymentProvider, intentID string) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.PaymentProvider != nil && *r.PaymentProvider == provider && r.PaymentIntentID != nil && *r.PaymentIntentID == intentID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, reservationRepo.ErrReservationNotFound
}

func (s *memoryStore) UpdateStatus(_ context.Context, id int64, from, to domain.ReservationStatus) (*domain.Reservation, error) {
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

func (s *memoryStore) ListByUser(context.Context, int64, *domain.ReservationStatus) ([]*domain.Reservation, error) {
	return nil, nil
}

func (s *memoryStore) ListByProfessional(context.Context, int64, *domain.ReservationStatus) ([]*domain.Reservation, error) {
	return nil, nil
}

type fakeGateway struct {
	confirmation *domain.PaymentConfirmation
	parseErr     error
	outcome      domain.PaymentOutcome
	confirmErr   error
}

func (g *fakeGateway) Provider() domain.PaymentProvider { return domain.ProviderStripe }

func (g *fakeGateway) ConfirmPayment(context.Context, string) (domain.PaymentOutcome, error) {
	return g.outcome, g.confirmErr
}

func (g *fakeGateway) ParseWebhook(context.Context, []byte, http.Header) (*domain.PaymentConfirmation, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	if g.confirmation == nil {
		return nil, nil
	}
	copied := *g.confirmation
	return &copied, nil
}

var owner = domain.Actor{UserID: 100, Role: domain.RoleUser}

func reservationWithIntent(status domain.ReservationStatus) *domain.Reservation {
	return &domain.Reservation{
		ID:              1,
		WindowID:        11,
		StartTime:       "14:00",
		UserID:          owner.UserID,
		ProfessionalID:  7,
		Status:          status,
		PaymentProvider: ptr.Ptr(domain.ProviderStripe),
		PaymentIntentID: ptr.Ptr("pi_123"),
	}
}

func succeeded(eventID string) *domain.PaymentConfirmation {
	return &domain.PaymentConfirmation{
		Provider:      domain.ProviderStripe,
		EventID:       eventID,
		ReservationID: 1,
		IntentID:      "pi_123",
		Outcome:       domain.OutcomeSucceeded,
	}
}

func newTracker(t *testing.T) *processed.Tracker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return processed.NewTracker(client, time.Hour)
}

func newUseCase(store *memoryStore, gateway *fakeGateway, tracker ProcessedTracker) *UseCase {
	lifecycle := reservations.NewService(store, nil, nil, nopLogger{})
	return NewUseCase(store, lifecycle, []PaymentGateway{gateway}, tracker, nil, Config{Timeout: time.Second}, nopLogger{})
}

func webhook() *WebhookRequest {
	return &WebhookRequest{Provider: domain.ProviderStripe, Payload: []byte(`{}`), Header: http.Header{}}
}

func TestHandleWebhook_SucceededPays(t *testing.T) {
	store := newStore(reservationWithIntent(domain.StatusAwaitingPayment))
	uc := newUseCase(store, &fakeGateway{confirmation: succeeded("evt_1")}, newTracker(t))

	result, err := uc.HandleWebhook(context.Background(), webhook())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, result.Status)
	assert.False(t, result.Noop)
	assert.Equal(t, domain.StatusPaid, store.items[1].Status)
}

func TestHandleWebhook_DuplicateEventSkipped(t *testing.T) {
	store := newStore(reservationWithIntent(domain.StatusAwaitingPayment))
	uc := newUseCase(store, &fakeGateway{confirmation: succeeded("evt_1")}, newTracker(t))

	_, err := uc.HandleWebhook(context.Background(), webhook())
	require.NoError(t, err)

	// Профессионал успел подтвердить, повторная доставка ничего не меняет
	store.items[1].Status = domain.StatusApproved

	result, err := uc.HandleWebhook(context.Background(), webhook())
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, domain.StatusApproved, store.items[1].Status)
}

func TestHandleWebhook_DistinctEventForPaidIsNoop(t *testing.T) {
	store := newStore(reservationWithIntent(domain.StatusPaid))
	uc := newUseCase(store, &fakeGateway{confirmation: succeeded("evt_2")}, nil)

	result, err := uc.HandleWebhook(context.Background(), webhook())

	require.NoError(t, err)
	assert.True(t, result.Noop)
	assert.Equal(t, domain.StatusPaid, store.items[1].Status)
}

func TestHandleWebhook_LatePaymentForCancelledIsAcknowledged(t *testing.T) {
	for _, status := range []domain.ReservationStatus{domain.StatusCancelled, domain.StatusRefused} {
		t.Run(string(status), func(t *testing.T) {
			store := newStore(reservationWithIntent(status))
			uc := newUseCase(store, &fakeGateway{confirmation: succeeded("evt_1")}, newTracker(t))

			result, err := uc.HandleWebhook(context.Background(), webhook())

			require.NoError(t, err)
			assert.True(t, result.Rejected)
			assert.Equal(t, status, store.items[1].Status)
		})
	}
}

func TestHandleWebhook_FailedLeavesReservation(t *testing.T) {
	store := newStore(reservationWithIntent(domain.StatusAwaitingPayment))
	confirmation := succeeded("evt_1")
	confirmation.Outcome = domain.OutcomeFailed
	uc := newUseCase(store, &fakeGateway{confirmation: confirmation}, nil)

	result, err := uc.HandleWebhook(context.Background(), webhook())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingPayment, result.Status)
	assert.Equal(t, domain.StatusAwaitingPayment, store.items[1].Status)
}

func TestHandleWebhook_FallsBackToReservationID(t *testing.T) {
	r := reservationWithIntent(domain.StatusAwaitingPayment)
	r.PaymentIntentID = nil
	r.PaymentProvider = nil
	store := newStore(r)
	uc := newUseCase(store, &fakeGateway{confirmation: succeeded("evt_1")}, nil)

	_, err := uc.HandleWebhook(context.Background(), webhook())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, store.items[1].Status)
}

func TestHandleWebhook_EarlierIntentOfReservationPays(t *testing.T) {
	// Пользователь создал pi_123 после pi_old, но оплатил pi_old
	store := newStore(reservationWithIntent(domain.StatusAwaitingPayment))
	confirmation := succeeded("evt_old")
	confirmation.IntentID = "pi_old"
	uc := newUseCase(store, &fakeGateway{confirmation: confirmation}, newTracker(t))

	result, err := uc.HandleWebhook(context.Background(), webhook())

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ReservationID)
	assert.Equal(t, domain.StatusPaid, result.Status)
	assert.Equal(t, domain.StatusPaid, store.items[1].Status)
}

func TestHandleWebhook_EarlierIntentForCancelledIsRejected(t *testing.T) {
	store := newStore(reservationWithIntent(domain.StatusCancelled))
	confirmation := succeeded("evt_old")
	confirmation.IntentID = "pi_old"
	uc := newUseCase(store, &fakeGateway{confirmation: confirmation}, nil)

	result, err := uc.HandleWebhook(context.Background(), webhook())

	require.NoError(t, err)
	assert.True(t, result.Rejected)
	assert.Equal(t, domain.StatusCancelled, store.items[1].Status)
}

func TestHandleWebhook_UnknownReservationIsAcknowledged(t *testing.T) {
	confirmation := succeeded("evt_1")
	confirmation.ReservationID = 0
	uc := newUseCase(newStore(), &fakeGateway{confirmation: confirmation}, nil)

	result, err := uc.HandleWebhook(context.Background(), webhook())

	require.NoError(t, err)
	assert.Zero(t, result.ReservationID)
}

func TestHandleWebhook_Errors(t *testing.T) {
	uc := newUseCase(newStore(), &fakeGateway{parseErr: errors.New("bad signature")}, nil)
	_, err := uc.HandleWebhook(context.Background(), webhook())
	assert.ErrorIs(t, err, ErrInvalidWebhook)

	_, err = uc.HandleWebhook(context.Background(), &WebhookRequest{Provider: domain.ProviderPayPal})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestHandleWebhook_IgnoredEvent(t *testing.T) {
	uc := newUseCase(newStore(), &fakeGateway{}, nil)

	result, err := uc.HandleWebhook(context.Background(), webhook())

	require.NoError(t, err)
	assert.Zero(t, result.ReservationID)
}

func TestConfirmByClient_Succeeded(t *testing.T) {
	store := newStore(reservationWithIntent(domain.StatusAwaitingPayment))
	uc := newUseCase(store, &fakeGateway{outcome: domain.OutcomeSucceeded}, nil)

	result, err := uc.ConfirmByClient(context.Background(), &ClientRequest{Actor: owner, ReservationID: 1})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, result.Status)
}

func TestConfirmByClient_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		outcome    domain.PaymentOutcome
		confirmErr error
		wantErr    error
		wantStatus domain.ReservationStatus
	}{
		{name: "failed", outcome: domain.OutcomeFailed, wantErr: domain.ErrPaymentFailed, wantStatus: domain.StatusAwaitingPayment},
		{name: "cancelled", outcome: domain.OutcomeCancelled, wantErr: domain.ErrPaymentFailed, wantStatus: domain.StatusAwaitingPayment},
		{name: "pending", outcome: domain.OutcomePending, wantStatus: domain.StatusAwaitingPayment},
		{name: "gateway down", confirmErr: errors.New("timeout"), wantErr: domain.ErrGatewayUnavailable, wantStatus: domain.StatusAwaitingPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(reservationWithIntent(domain.StatusAwaitingPayment))
			uc := newUseCase(store, &fakeGateway{outcome: tt.outcome, confirmErr: tt.confirmErr}, nil)

			_, err := uc.ConfirmByClient(context.Background(), &ClientRequest{Actor: owner, ReservationID: 1})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, store.items[1].Status)
		})
	}
}

func TestConfirmByClient_Rejections(t *testing.T) {
	store := newStore(reservationWithIntent(domain.StatusAwaitingPayment))
	uc := newUseCase(store, &fakeGateway{outcome: domain.OutcomeSucceeded}, nil)

	_, err := uc.ConfirmByClient(context.Background(), &ClientRequest{Actor: domain.Actor{UserID: 200}, ReservationID: 1})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = uc.ConfirmByClient(context.Background(), &ClientRequest{Actor: owner, ReservationID: 2})
	assert.ErrorIs(t, err, ErrReservationNotFound)

	noIntent := reservationWithIntent(domain.StatusAwaitingPayment)
	noIntent.PaymentIntentID = nil
	uc = newUseCase(newStore(noIntent), &fakeGateway{outcome: domain.OutcomeSucceeded}, nil)
	_, err = uc.ConfirmByClient(context.Background(), &ClientRequest{Actor: owner, ReservationID: 1})
	assert.ErrorIs(t, err, ErrNoPaymentIntent)

	cancelled := newStore(reservationWithIntent(domain.StatusCancelled))
	uc = newUseCase(cancelled, &fakeGateway{outcome: domain.OutcomeSucceeded}, nil)
	_, err = uc.ConfirmByClient(context.Background(), &ClientRequest{Actor: owner, ReservationID: 1})
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, domain.StatusCancelled, cancelled.items[1].Status)
}
