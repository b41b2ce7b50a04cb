package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

var tracer = otel.Tracer("consultation.internal.integrations.stripe")

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client платёжный шлюз на Stripe PaymentIntents
type Client struct {
	intents       *paymentintent.Client
	webhookSecret string
	log           Logger
}

// NewClient создает новый экземпляр клиента Stripe
func NewClient(cfg Config, httpClient *http.Client, log Logger) *Client {
	backendCfg := &stripego.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripego.String(cfg.BaseURL)
	}

	return &Client{
		intents: &paymentintent.Client{
			B:   stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		webhookSecret: cfg.WebhookSecret,
		log:           log,
	}
}

// Provider возвращает идентификатор провайдера
func (c *Client) Provider() domain.PaymentProvider {
	return domain.ProviderStripe
}

// CreatePaymentIntent создает PaymentIntent с id бронирования в metadata
func (c *Client) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	ctx, span := tracer.Start(ctx, "stripe.create_payment_intent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int64("consultation.reservation_id", req.ReservationID),
		attribute.Int64("consultation.amount_cents", req.AmountCents),
		attribute.String("consultation.currency", req.Currency),
	)

	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(req.AmountCents),
		Currency: stripego.String(req.Currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripego.String(req.Description)
	}
	params.Context = ctx
	params.AddMetadata(metadataReservationID, strconv.FormatInt(req.ReservationID, 10))
	params.SetIdempotencyKey(idempotencyKey(req))

	pi, err := c.intents.New(params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create payment intent")
		c.log.Error("Stripe: failed to create payment intent for reservation id=%d: %v", req.ReservationID, err)
		return nil, mapError(err)
	}

	span.SetAttributes(attribute.String("stripe.payment_intent_id", pi.ID))
	c.log.Info("Stripe: created payment intent %s for reservation id=%d", pi.ID, req.ReservationID)

	return &domain.PaymentIntent{
		ID:            pi.ID,
		Provider:      domain.ProviderStripe,
		ReservationID: req.ReservationID,
		AmountCents:   pi.Amount,
		Currency:      string(pi.Currency),
		ClientSecret:  pi.ClientSecret,
	}, nil
}

// ConfirmPayment перечитывает PaymentIntent и возвращает его итог
func (c *Client) ConfirmPayment(ctx context.Context, intentID string) (domain.PaymentOutcome, error) {
	ctx, span := tracer.Start(ctx, "stripe.get_payment_intent", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("stripe.payment_intent_id", intentID))

	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.intents.Get(intentID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get payment intent")
		c.log.Error("Stripe: failed to get payment intent %s: %v", intentID, err)
		return "", mapError(err)
	}

	outcome := intentOutcome(pi)
	span.SetAttributes(attribute.String("stripe.outcome", string(outcome)))
	return outcome, nil
}

// ParseWebhook проверяет подпись и переводит событие в подтверждение оплаты
// Для событий, не относящихся к PaymentIntent, возвращает nil без ошибки.
func (c *Client) ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*domain.PaymentConfirmation, error) {
	_, span := tracer.Start(ctx, "stripe.parse_webhook", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	signature := header.Get("Stripe-Signature")
	if signature == "" {
		return nil, ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	span.SetAttributes(
		attribute.String("stripe.event_id", event.ID),
		attribute.String("stripe.event_type", string(event.Type)),
	)

	outcome, ok := eventOutcomes[string(event.Type)]
	if !ok {
		c.log.Info("Stripe: event %s of type %s ignored", event.ID, event.Type)
		return nil, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrInvalidEvent, event.ID)
	}

	var pi stripego.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: failed to decode payment intent: %v", ErrInvalidEvent, err)
	}

	return &domain.PaymentConfirmation{
		Provider:      domain.ProviderStripe,
		EventID:       event.ID,
		ReservationID: reservationID(pi.Metadata),
		IntentID:      pi.ID,
		Outcome:       outcome,
	}, nil
}

// intentOutcome сводит статус PaymentIntent к итогу оплаты
func intentOutcome(pi *stripego.PaymentIntent) domain.PaymentOutcome {
	switch pi.Status {
	case stripego.PaymentIntentStatusSucceeded:
		return domain.OutcomeSucceeded
	case stripego.PaymentIntentStatusCanceled:
		return domain.OutcomeCancelled
	case stripego.PaymentIntentStatusRequiresPaymentMethod:
		// Повторный запрос способа оплаты после отклонения
		if pi.LastPaymentError != nil {
			return domain.OutcomeFailed
		}
		return domain.OutcomePending
	default:
		return domain.OutcomePending
	}
}

// mapError переводит ошибку Stripe в доменную
func mapError(err error) error {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripego.ErrorCodeAmountTooSmall,
			stripeErr.Code == stripego.ErrorCodeAmountTooLarge,
			stripeErr.Type == stripego.ErrorTypeInvalidRequest && (stripeErr.Param == "amount" || stripeErr.Param == "currency"):
			return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, stripeErr.Msg)
		case stripeErr.Type == stripego.ErrorTypeCard:
			return fmt.Errorf("%w: %s", domain.ErrPaymentFailed, stripeErr.Msg)
		}
		return fmt.Errorf("%w: stripe status %d: %s", domain.ErrGatewayUnavailable, stripeErr.HTTPStatusCode, stripeErr.Msg)
	}
	return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
}

func reservationID(metadata map[string]string) int64 {
	id, err := strconv.ParseInt(metadata[metadataReservationID], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func idempotencyKey(req domain.PaymentIntentRequest) string {
	if req.IdempotencyKey != "" {
		return req.IdempotencyKey
	}
	return uuid.NewString()
}
