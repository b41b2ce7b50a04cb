package change_reservation_status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeService struct {
	calls []string
	err   error
}

func (f *fakeService) result(action string, id int64, status domain.ReservationStatus) (*models.ReservationResponse, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", action, id))
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReservationResponse{ID: id, Status: string(status)}, nil
}

func (f *fakeService) Approve(_ context.Context, _ domain.Actor, id int64) (*models.ReservationResponse, error) {
	return f.result("approve", id, domain.StatusAwaitingPayment)
}

func (f *fakeService) Refuse(_ context.Context, _ domain.Actor, id int64) (*models.ReservationResponse, error) {
	return f.result("refuse", id, domain.StatusRefused)
}

func (f *fakeService) Cancel(_ context.Context, _ domain.Actor, id int64) (*models.ReservationResponse, error) {
	return f.result("cancel", id, domain.StatusCancelled)
}

func patch(id string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reservations/"+id, nil)
	req = mux.SetURLVars(req, map[string]string{"reservationId": id})
	return req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 7, Role: domain.RoleProfessional}))
}

func TestNewHandler_RejectsSystemActions(t *testing.T) {
	for _, action := range []domain.Action{domain.ActionBook, domain.ActionPay, domain.ActionTimeout} {
		_, err := NewHandler(&fakeService{}, action, nopLogger{})
		assert.Error(t, err, action)
	}
}

func TestHandle_DispatchesAction(t *testing.T) {
	tests := []struct {
		action     domain.Action
		wantCall   string
		wantStatus domain.ReservationStatus
	}{
		{action: domain.ActionApprove, wantCall: "approve:3", wantStatus: domain.StatusAwaitingPayment},
		{action: domain.ActionRefuse, wantCall: "refuse:3", wantStatus: domain.StatusRefused},
		{action: domain.ActionCancel, wantCall: "cancel:3", wantStatus: domain.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			service := &fakeService{}
			h, err := NewHandler(service, tt.action, nopLogger{})
			require.NoError(t, err)
			rec := httptest.NewRecorder()

			h.Handle(rec, patch("3"))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, []string{tt.wantCall}, service.calls)

			var body models.ReservationResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.wantStatus), body.Status)
		})
	}
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		err        error
		wantStatus int
	}{
		{name: "bad id", id: "x", wantStatus: http.StatusBadRequest},
		{name: "not found", id: "3", err: reservations.ErrReservationNotFound, wantStatus: http.StatusNotFound},
		{name: "not owner", id: "3", err: reservations.ErrAccessDenied, wantStatus: http.StatusForbidden},
		{name: "illegal transition", id: "3", err: fmt.Errorf("%w: paid -> refused", domain.ErrIllegalTransition), wantStatus: http.StatusConflict},
		{name: "internal", id: "3", err: reservations.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(&fakeService{err: tt.err}, domain.ActionRefuse, nopLogger{})
			require.NoError(t, err)
			rec := httptest.NewRecorder()

			h.Handle(rec, patch(tt.id))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
