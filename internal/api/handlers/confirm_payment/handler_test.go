package confirm_payment

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
	confirmPayment "github.com/m04kA/SMC-ConsultationService/internal/usecase/confirm_payment"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeUseCase struct {
	result *confirmPayment.Result
	err    error
}

func (f *fakeUseCase) ConfirmByClient(_ context.Context, _ *confirmPayment.ClientRequest) (*confirmPayment.Result, error) {
	return f.result, f.err
}

func post(id string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/"+id+"/payment/confirm", nil)
	req = mux.SetURLVars(req, map[string]string{"reservationId": id})
	return req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 100, Role: domain.RoleUser}))
}

func TestHandle_Paid(t *testing.T) {
	uc := &fakeUseCase{result: &confirmPayment.Result{
		ReservationID: 4,
		Outcome:       domain.OutcomeSucceeded,
		Status:        domain.StatusPaid,
	}}
	rec := httptest.NewRecorder()

	NewHandler(uc, nopLogger{}).Handle(rec, post("4"))

	require.Equal(t, http.StatusOK, rec.Code)
	var body ConfirmPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ConfirmPaymentResponse{ReservationID: 4, Outcome: "SUCCEEDED", Status: "paid"}, body)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "declined", err: fmt.Errorf("%w: FAILED", domain.ErrPaymentFailed), wantStatus: http.StatusPaymentRequired},
		{name: "no intent", err: confirmPayment.ErrNoPaymentIntent, wantStatus: http.StatusConflict},
		{name: "cancelled meanwhile", err: fmt.Errorf("%w: cancelled -> paid", domain.ErrIllegalTransition), wantStatus: http.StatusConflict},
		{name: "not found", err: confirmPayment.ErrReservationNotFound, wantStatus: http.StatusNotFound},
		{name: "not owner", err: confirmPayment.ErrAccessDenied, wantStatus: http.StatusForbidden},
		{name: "gateway down", err: domain.ErrGatewayUnavailable, wantStatus: http.StatusBadGateway},
		{name: "internal", err: confirmPayment.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			NewHandler(&fakeUseCase{err: tt.err}, nopLogger{}).Handle(rec, post("4"))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
