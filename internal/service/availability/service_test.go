package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	windowRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/availability"
	"github.com/m04kA/SMC-ConsultationService/internal/service/availability/models"
	"github.com/m04kA/SMC-ConsultationService/pkg/ptr"
	"github.com/m04kA/SMC-ConsultationService/pkg/txmanager"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type passthroughTx struct{ err error }

func (p passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.err != nil {
		return p.err
	}
	return fn(ctx)
}

type fakeWindows struct {
	items   map[int64]*domain.AvailabilityWindow
	nextID  int64
	deleted []int64
}

func newFakeWindows(list ...*domain.AvailabilityWindow) *fakeWindows {
	f := &fakeWindows{items: make(map[int64]*domain.AvailabilityWindow), nextID: 100}
	for _, w := range list {
		f.items[w.ID] = w
	}
	return f
}

func (f *fakeWindows) Create(_ context.Context, w *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error) {
	f.nextID++
	w.ID = f.nextID
	f.items[w.ID] = w
	return w, nil
}

func (f *fakeWindows) Update(_ context.Context, w *domain.AvailabilityWindow) (*domain.AvailabilityWindow, error) {
	if _, ok := f.items[w.ID]; !ok {
		return nil, windowRepo.ErrWindowNotFound
	}
	f.items[w.ID] = w
	return w, nil
}

func (f *fakeWindows) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return windowRepo.ErrWindowNotFound
	}
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeWindows) GetByID(_ context.Context, id int64) (*domain.AvailabilityWindow, error) {
	w, ok := f.items[id]
	if !ok {
		return nil, windowRepo.ErrWindowNotFound
	}
	copied := *w
	return &copied, nil
}

func (f *fakeWindows) ListByProfessional(_ context.Context, professionalID int64, _, _ *time.Time) ([]*domain.AvailabilityWindow, error) {
	var out []*domain.AvailabilityWindow
	for _, w := range f.items {
		if w.ProfessionalID == professionalID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWindows) ListOverlapping(_ context.Context, professionalID int64, date time.Time, start, end types.TimeString, excludeID int64) ([]*domain.AvailabilityWindow, error) {
	probe := &domain.AvailabilityWindow{Date: date, StartTime: start, EndTime: end}
	var out []*domain.AvailabilityWindow
	for _, w := range f.items {
		if w.ProfessionalID == professionalID && w.ID != excludeID && w.Overlaps(probe) {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeReservations struct {
	items []*domain.Reservation
}

func (f *fakeReservations) ListByWindow(_ context.Context, windowID int64, activeOnly bool) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, r := range f.items {
		if r.WindowID == windowID && (!activeOnly || r.IsActive()) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservations) UpdateStatus(_ context.Context, id int64, from, to domain.ReservationStatus) (*domain.Reservation, error) {
	for _, r := range f.items {
		if r.ID == id {
			if r.Status != from {
				return nil, errors.New("status conflict")
			}
			r.Status = to
			copied := *r
			return &copied, nil
		}
	}
	return nil, errors.New("not found")
}

type recordingNotifier struct {
	events []domain.LifecycleEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event domain.LifecycleEvent) error {
	n.events = append(n.events, event)
	return nil
}

var (
	testNow      = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	professional = domain.Actor{UserID: 7, Role: domain.RoleProfessional}
	otherPro     = domain.Actor{UserID: 8, Role: domain.RoleProfessional}
	user         = domain.Actor{UserID: 100, Role: domain.RoleUser}
	admin        = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

func window(id int64, date, start, end string) *domain.AvailabilityWindow {
	d, _ := time.Parse(domain.DateFormat, date)
	return &domain.AvailabilityWindow{
		ID:             id,
		ProfessionalID: professional.UserID,
		Date:           d,
		StartTime:      types.MustTimeString(start),
		EndTime:        types.MustTimeString(end),
	}
}

func windowRequest(date, start, end string) models.WindowRequest {
	return models.WindowRequest{Date: date, StartTime: start, EndTime: end}
}

type fixture struct {
	svc          *Service
	windows      *fakeWindows
	reservations *fakeReservations
	notifier     *recordingNotifier
}

func newFixture(windows []*domain.AvailabilityWindow, reservations []*domain.Reservation) *fixture {
	f := &fixture{
		windows:      newFakeWindows(windows...),
		reservations: &fakeReservations{items: reservations},
		notifier:     &recordingNotifier{},
	}
	f.svc = NewService(f.windows, f.reservations, passthroughTx{}, f.notifier, nil,
		Config{DurationMinutes: 45, Location: time.UTC}, nopLogger{}).
		WithTimeProvider(fixedTime{now: testNow})
	return f
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(nil, nil)

	resp, err := f.svc.Create(context.Background(), professional, &models.CreateWindowRequest{
		WindowRequest: windowRequest("2026-03-12", "14:00", "15:30"),
	})

	require.NoError(t, err)
	assert.Equal(t, professional.UserID, resp.ProfessionalID)
	assert.Equal(t, "2026-03-12", resp.Date)
	assert.Equal(t, "14:00", resp.StartTime)
	assert.Equal(t, "15:30", resp.EndTime)
}

func TestCreate_Errors(t *testing.T) {
	existing := window(1, "2026-03-12", "09:00", "11:00")

	tests := []struct {
		name    string
		actor   domain.Actor
		req     models.CreateWindowRequest
		wantErr error
	}{
		{
			name:    "user cannot create windows",
			actor:   user,
			req:     models.CreateWindowRequest{WindowRequest: windowRequest("2026-03-12", "14:00", "15:30")},
			wantErr: ErrAccessDenied,
		},
		{
			name:  "professional cannot create for someone else",
			actor: professional,
			req: models.CreateWindowRequest{
				WindowRequest:  windowRequest("2026-03-12", "14:00", "15:30"),
				ProfessionalID: ptr.Ptr(int64(8)),
			},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "admin must name a professional",
			actor:   admin,
			req:     models.CreateWindowRequest{WindowRequest: windowRequest("2026-03-12", "14:00", "15:30")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "end before start",
			actor:   professional,
			req:     models.CreateWindowRequest{WindowRequest: windowRequest("2026-03-12", "15:30", "14:00")},
			wantErr: domain.ErrInvalidWindow,
		},
		{
			name:    "too short for one consultation",
			actor:   professional,
			req:     models.CreateWindowRequest{WindowRequest: windowRequest("2026-03-12", "09:00", "09:30")},
			wantErr: domain.ErrInvalidWindow,
		},
		{
			name:    "malformed date",
			actor:   professional,
			req:     models.CreateWindowRequest{WindowRequest: windowRequest("12/03/2026", "14:00", "15:30")},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "past date",
			actor:   professional,
			req:     models.CreateWindowRequest{WindowRequest: windowRequest("2026-03-09", "14:00", "15:30")},
			wantErr: ErrWindowInPast,
		},
		{
			name:    "overlap",
			actor:   professional,
			req:     models.CreateWindowRequest{WindowRequest: windowRequest("2026-03-12", "10:30", "12:00")},
			wantErr: ErrWindowOverlap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture([]*domain.AvailabilityWindow{existing}, nil)

			_, err := f.svc.Create(context.Background(), tt.actor, &tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreate_AdjacentWindowsDoNotOverlap(t *testing.T) {
	f := newFixture([]*domain.AvailabilityWindow{window(1, "2026-03-12", "09:00", "11:00")}, nil)

	_, err := f.svc.Create(context.Background(), professional, &models.CreateWindowRequest{
		WindowRequest: windowRequest("2026-03-12", "11:00", "12:30"),
	})

	assert.NoError(t, err)
}

func TestCreate_AdminForProfessional(t *testing.T) {
	f := newFixture(nil, nil)

	resp, err := f.svc.Create(context.Background(), admin, &models.CreateWindowRequest{
		WindowRequest:  windowRequest("2026-03-12", "14:00", "15:30"),
		ProfessionalID: ptr.Ptr(int64(7)),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ProfessionalID)
}

func TestCreate_TransactionFailureIsInternal(t *testing.T) {
	f := newFixture(nil, nil)
	f.svc.txManager = passthroughTx{err: txmanager.ErrBeginTx}

	_, err := f.svc.Create(context.Background(), professional, &models.CreateWindowRequest{
		WindowRequest: windowRequest("2026-03-12", "14:00", "15:30"),
	})

	assert.ErrorIs(t, err, ErrInternal)
}

func TestUpdate_KeepsActiveReservationSlots(t *testing.T) {
	w := window(1, "2026-03-12", "14:00", "15:30")
	reservation := &domain.Reservation{ID: 5, WindowID: 1, StartTime: "14:45", Status: domain.StatusPaid}
	f := newFixture([]*domain.AvailabilityWindow{w}, []*domain.Reservation{reservation})

	// 14:00-16:15 сохраняет слот 14:45
	resp, err := f.svc.Update(context.Background(), professional, 1, &models.UpdateWindowRequest{
		WindowRequest: windowRequest("2026-03-12", "14:00", "16:15"),
	})
	require.NoError(t, err)
	assert.Equal(t, "16:15", resp.EndTime)

	// 14:15-16:00 сдвигает сетку слотов, 14:45 больше не слот
	_, err = f.svc.Update(context.Background(), professional, 1, &models.UpdateWindowRequest{
		WindowRequest: windowRequest("2026-03-12", "14:15", "16:00"),
	})
	assert.ErrorIs(t, err, ErrWindowHasActiveReservations)
}

func TestUpdate_InactiveReservationsDoNotBlock(t *testing.T) {
	w := window(1, "2026-03-12", "14:00", "15:30")
	reservation := &domain.Reservation{ID: 5, WindowID: 1, StartTime: "14:45", Status: domain.StatusCancelled}
	f := newFixture([]*domain.AvailabilityWindow{w}, []*domain.Reservation{reservation})

	_, err := f.svc.Update(context.Background(), professional, 1, &models.UpdateWindowRequest{
		WindowRequest: windowRequest("2026-03-13", "09:00", "10:30"),
	})

	assert.NoError(t, err)
}

func TestUpdate_OwnerOnlyAndNotFound(t *testing.T) {
	f := newFixture([]*domain.AvailabilityWindow{window(1, "2026-03-12", "14:00", "15:30")}, nil)
	req := &models.UpdateWindowRequest{WindowRequest: windowRequest("2026-03-12", "14:00", "16:00")}

	_, err := f.svc.Update(context.Background(), otherPro, 1, req)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.Update(context.Background(), professional, 2, req)
	assert.ErrorIs(t, err, ErrWindowNotFound)
}

func TestUpdate_OverlapExcludesItself(t *testing.T) {
	f := newFixture([]*domain.AvailabilityWindow{
		window(1, "2026-03-12", "14:00", "15:30"),
		window(2, "2026-03-12", "16:00", "17:00"),
	}, nil)

	_, err := f.svc.Update(context.Background(), professional, 1, &models.UpdateWindowRequest{
		WindowRequest: windowRequest("2026-03-12", "13:00", "15:00"),
	})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), professional, 1, &models.UpdateWindowRequest{
		WindowRequest: windowRequest("2026-03-12", "14:00", "16:30"),
	})
	assert.ErrorIs(t, err, ErrWindowOverlap)
}

func TestDelete_WithoutReservations(t *testing.T) {
	f := newFixture([]*domain.AvailabilityWindow{window(1, "2026-03-12", "14:00", "15:30")}, nil)

	resp, err := f.svc.Delete(context.Background(), professional, 1, false)

	require.NoError(t, err)
	assert.Empty(t, resp.CancelledReservationIDs)
	assert.Equal(t, []int64{1}, f.windows.deleted)
}

func TestDelete_BlockedWithoutCascade(t *testing.T) {
	f := newFixture(
		[]*domain.AvailabilityWindow{window(1, "2026-03-12", "14:00", "15:30")},
		[]*domain.Reservation{{ID: 5, WindowID: 1, StartTime: "14:00", Status: domain.StatusPendingProfessionalApproval}},
	)

	_, err := f.svc.Delete(context.Background(), professional, 1, false)

	assert.ErrorIs(t, err, ErrWindowHasActiveReservations)
	assert.Empty(t, f.windows.deleted)
}

func TestDelete_CascadeCancelsPendingAndAwaiting(t *testing.T) {
	pending := &domain.Reservation{ID: 5, WindowID: 1, StartTime: "14:00", Status: domain.StatusPendingProfessionalApproval}
	awaiting := &domain.Reservation{ID: 6, WindowID: 1, StartTime: "14:45", Status: domain.StatusAwaitingPayment}
	refused := &domain.Reservation{ID: 7, WindowID: 1, StartTime: "14:45", Status: domain.StatusRefused}
	f := newFixture(
		[]*domain.AvailabilityWindow{window(1, "2026-03-12", "14:00", "15:30")},
		[]*domain.Reservation{pending, awaiting, refused},
	)

	resp, err := f.svc.Delete(context.Background(), professional, 1, true)

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{5, 6}, resp.CancelledReservationIDs)
	assert.Equal(t, domain.StatusCancelled, pending.Status)
	assert.Equal(t, domain.StatusCancelled, awaiting.Status)
	assert.Equal(t, domain.StatusRefused, refused.Status)

	require.Len(t, f.notifier.events, 2)
	for _, event := range f.notifier.events {
		assert.Equal(t, domain.ActionCancel, event.Action)
		assert.Equal(t, domain.StatusCancelled, event.To)
		assert.Equal(t, professional.UserID, event.ActorID)
	}
}

func TestDelete_CascadeBlockedByPaid(t *testing.T) {
	pending := &domain.Reservation{ID: 5, WindowID: 1, StartTime: "14:00", Status: domain.StatusPendingProfessionalApproval}
	paid := &domain.Reservation{ID: 6, WindowID: 1, StartTime: "14:45", Status: domain.StatusPaid}
	f := newFixture(
		[]*domain.AvailabilityWindow{window(1, "2026-03-12", "14:00", "15:30")},
		[]*domain.Reservation{pending, paid},
	)

	_, err := f.svc.Delete(context.Background(), professional, 1, true)

	assert.ErrorIs(t, err, ErrWindowHasActiveReservations)
	assert.Equal(t, domain.StatusPendingProfessionalApproval, pending.Status)
	assert.Empty(t, f.windows.deleted)
	assert.Empty(t, f.notifier.events)
}

func TestListByProfessional_RangeValidation(t *testing.T) {
	f := newFixture([]*domain.AvailabilityWindow{window(1, "2026-03-12", "14:00", "15:30")}, nil)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	resp, err := f.svc.ListByProfessional(context.Background(), 7, &models.ListWindowsRequest{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	_, err = f.svc.ListByProfessional(context.Background(), 7, &models.ListWindowsRequest{From: &to, To: &from})
	assert.ErrorIs(t, err, ErrInvalidInput)

	far := from.AddDate(2, 0, 0)
	_, err = f.svc.ListByProfessional(context.Background(), 7, &models.ListWindowsRequest{From: &from, To: &far})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(nil, nil)

	_, err := f.svc.GetByID(context.Background(), 1)

	assert.ErrorIs(t, err, ErrWindowNotFound)
}
