package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

const webhookSecret = "whsec_test123"

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func sign(payload []byte, secret string) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	var baseURL string
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		baseURL = srv.URL
	}
	return NewClient(Config{SecretKey: "sk_test_123", WebhookSecret: webhookSecret, BaseURL: baseURL}, &http.Client{Timeout: 5 * time.Second}, nopLogger{})
}

func eventPayload(id, eventType, intentID, reservationID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"api_version": "2020-08-27",
		"type": %q,
		"data": {"object": {"id": %q, "object": "payment_intent", "amount": 6000, "currency": "eur", "metadata": {"reservation_id": %q}}}
	}`, id, eventType, intentID, reservationID))
}

func TestCreatePaymentIntent(t *testing.T) {
	var idempotencyKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		idempotencyKey = r.Header.Get("Idempotency-Key")

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "6000", r.Form.Get("amount"))
		assert.Equal(t, "eur", r.Form.Get("currency"))
		assert.Equal(t, "42", r.Form.Get("metadata[reservation_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":6000,"currency":"eur","client_secret":"pi_123_secret_abc","status":"requires_payment_method"}`))
	})

	intent, err := client.CreatePaymentIntent(context.Background(), domain.PaymentIntentRequest{
		ReservationID: 42,
		AmountCents:   6000,
		Currency:      "eur",
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, domain.ProviderStripe, intent.Provider)
	assert.Equal(t, int64(42), intent.ReservationID)
	assert.NotEmpty(t, idempotencyKey)
}

func TestCreatePaymentIntent_UsesRequestIdempotencyKey(t *testing.T) {
	var keys []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":6000,"currency":"eur","client_secret":"pi_123_secret_abc","status":"requires_payment_method"}`))
	})
	req := domain.PaymentIntentRequest{ReservationID: 42, AmountCents: 6000, Currency: "eur", IdempotencyKey: "attempt-42-1"}

	for i := 0; i < 2; i++ {
		_, err := client.CreatePaymentIntent(context.Background(), req)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"attempt-42-1", "attempt-42-1"}, keys)
}

func TestCreatePaymentIntent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "amount too small",
			status:  http.StatusBadRequest,
			body:    `{"error":{"type":"invalid_request_error","code":"amount_too_small","param":"amount","message":"Amount must be at least 50 cents"}}`,
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "invalid currency",
			status:  http.StatusBadRequest,
			body:    `{"error":{"type":"invalid_request_error","param":"currency","message":"Invalid currency"}}`,
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "api error",
			status:  http.StatusInternalServerError,
			body:    `{"error":{"type":"api_error","message":"Something went wrong"}}`,
			wantErr: domain.ErrGatewayUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.CreatePaymentIntent(context.Background(), domain.PaymentIntentRequest{ReservationID: 1, AmountCents: 10, Currency: "eur"})

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfirmPayment(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.PaymentOutcome
	}{
		{name: "succeeded", body: `{"id":"pi_1","object":"payment_intent","status":"succeeded"}`, want: domain.OutcomeSucceeded},
		{name: "canceled", body: `{"id":"pi_1","object":"payment_intent","status":"canceled"}`, want: domain.OutcomeCancelled},
		{name: "declined", body: `{"id":"pi_1","object":"payment_intent","status":"requires_payment_method","last_payment_error":{"type":"card_error","code":"card_declined"}}`, want: domain.OutcomeFailed},
		{name: "not paid yet", body: `{"id":"pi_1","object":"payment_intent","status":"requires_payment_method"}`, want: domain.OutcomePending},
		{name: "processing", body: `{"id":"pi_1","object":"payment_intent","status":"processing"}`, want: domain.OutcomePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v1/payment_intents/pi_1", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			outcome, err := client.ConfirmPayment(context.Background(), "pi_1")

			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestParseWebhook(t *testing.T) {
	client := newTestClient(t, nil)

	tests := []struct {
		eventType string
		want      domain.PaymentOutcome
	}{
		{eventType: "payment_intent.succeeded", want: domain.OutcomeSucceeded},
		{eventType: "payment_intent.payment_failed", want: domain.OutcomeFailed},
		{eventType: "payment_intent.canceled", want: domain.OutcomeCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			payload := eventPayload("evt_1", tt.eventType, "pi_123", "42")
			header := http.Header{}
			header.Set("Stripe-Signature", sign(payload, webhookSecret))

			confirmation, err := client.ParseWebhook(context.Background(), payload, header)

			require.NoError(t, err)
			require.NotNil(t, confirmation)
			assert.Equal(t, domain.PaymentConfirmation{
				Provider:      domain.ProviderStripe,
				EventID:       "evt_1",
				ReservationID: 42,
				IntentID:      "pi_123",
				Outcome:       tt.want,
			}, *confirmation)
		})
	}
}

func TestParseWebhook_IgnoresOtherEvents(t *testing.T) {
	client := newTestClient(t, nil)
	payload := eventPayload("evt_2", "payment_intent.created", "pi_123", "42")
	header := http.Header{}
	header.Set("Stripe-Signature", sign(payload, webhookSecret))

	confirmation, err := client.ParseWebhook(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Nil(t, confirmation)
}

func TestParseWebhook_MissingMetadata(t *testing.T) {
	client := newTestClient(t, nil)
	payload := eventPayload("evt_3", "payment_intent.succeeded", "pi_123", "")
	header := http.Header{}
	header.Set("Stripe-Signature", sign(payload, webhookSecret))

	confirmation, err := client.ParseWebhook(context.Background(), payload, header)

	require.NoError(t, err)
	assert.Equal(t, int64(0), confirmation.ReservationID)
	assert.Equal(t, "pi_123", confirmation.IntentID)
}

func TestParseWebhook_RejectsBadSignature(t *testing.T) {
	client := newTestClient(t, nil)
	payload := eventPayload("evt_1", "payment_intent.succeeded", "pi_123", "42")

	_, err := client.ParseWebhook(context.Background(), payload, http.Header{})
	assert.ErrorIs(t, err, ErrMissingSignature)

	header := http.Header{}
	header.Set("Stripe-Signature", sign(payload, "whsec_other"))
	_, err = client.ParseWebhook(context.Background(), payload, header)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	header.Set("Stripe-Signature", sign(payload, webhookSecret))
	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-3] = ' '
	_, err = client.ParseWebhook(context.Background(), tampered, header)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}
