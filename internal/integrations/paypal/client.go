package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

var tracer = otel.Tracer("consultation.internal.integrations.paypal")

// tokenExpiryMargin токен обновляется раньше истечения на эту величину
const tokenExpiryMargin = 30 * time.Second

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client платёжный шлюз на PayPal Orders v2
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        Logger

	mu    sync.Mutex
	token token
	now   func() time.Time
}

// NewClient создает новый экземпляр клиента PayPal
func NewClient(cfg Config, httpClient *http.Client, log Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log,
		now:        time.Now,
	}
}

// Provider возвращает идентификатор провайдера
func (c *Client) Provider() domain.PaymentProvider {
	return domain.ProviderPayPal
}

// CreatePaymentIntent создает заказ с intent=CAPTURE; custom_id хранит id бронирования
func (c *Client) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	ctx, span := tracer.Start(ctx, "paypal.create_order", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int64("consultation.reservation_id", req.ReservationID),
		attribute.Int64("consultation.amount_cents", req.AmountCents),
		attribute.String("consultation.currency", req.Currency),
	)

	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}

	body := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			CustomID:    strconv.FormatInt(req.ReservationID, 10),
			Description: req.Description,
			Amount:      &money{CurrencyCode: strings.ToUpper(req.Currency), Value: formatAmount(req.AmountCents, req.Currency)},
		}},
	}
	if c.cfg.ReturnURL != "" || c.cfg.CancelURL != "" {
		body.ApplicationContext = &applicationContext{ReturnURL: c.cfg.ReturnURL, CancelURL: c.cfg.CancelURL}
	}

	requestID := req.IdempotencyKey
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var created order
	if err := c.call(ctx, http.MethodPost, "/v2/checkout/orders", body, requestID, &created); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order")
		c.log.Error("PayPal: failed to create order for reservation id=%d: %v", req.ReservationID, err)
		return nil, mapError(err)
	}

	span.SetAttributes(attribute.String("paypal.order_id", created.ID))
	c.log.Info("PayPal: created order %s for reservation id=%d", created.ID, req.ReservationID)

	return &domain.PaymentIntent{
		ID:            created.ID,
		Provider:      domain.ProviderPayPal,
		ReservationID: req.ReservationID,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		ApprovalURL:   approvalURL(created.Links),
	}, nil
}

// ConfirmPayment захватывает одобренный покупателем заказ и возвращает итог
func (c *Client) ConfirmPayment(ctx context.Context, intentID string) (domain.PaymentOutcome, error) {
	ctx, span := tracer.Start(ctx, "paypal.capture_order", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("paypal.order_id", intentID))

	// Ключ зависит только от заказа: повторный захват вернёт тот же результат
	requestID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("capture:"+intentID)).String()

	var captured order
	err := c.call(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(intentID)+"/capture", struct{}{}, requestID, &captured)

	var apiErr *apiError
	switch {
	case err == nil:
		outcome := orderOutcome(&captured)
		span.SetAttributes(attribute.String("paypal.outcome", string(outcome)))
		return outcome, nil
	case errors.As(err, &apiErr) && apiErr.Response.hasIssue(issueOrderAlreadyCaptured):
		return c.orderOutcome(ctx, intentID)
	case errors.As(err, &apiErr) && apiErr.Response.hasIssue(issueOrderNotApproved):
		return domain.OutcomePending, nil
	case errors.As(err, &apiErr) && apiErr.Response.hasIssue(issueInstrumentDeclined):
		return domain.OutcomeFailed, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "capture order")
	c.log.Error("PayPal: failed to capture order %s: %v", intentID, err)
	return "", fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
}

// orderOutcome читает заказ и возвращает его итог
func (c *Client) orderOutcome(ctx context.Context, orderID string) (domain.PaymentOutcome, error) {
	var current order
	if err := c.call(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID), nil, "", &current); err != nil {
		c.log.Error("PayPal: failed to get order %s: %v", orderID, err)
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	return orderOutcome(&current), nil
}

// ParseWebhook проверяет подпись через PayPal и переводит событие в подтверждение оплаты
// Для необрабатываемых событий возвращает nil без ошибки.
func (c *Client) ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*domain.PaymentConfirmation, error) {
	ctx, span := tracer.Start(ctx, "paypal.parse_webhook", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if err := c.verifySignature(ctx, payload, header); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: failed to decode event: %v", ErrInvalidEvent, err)
	}
	span.SetAttributes(
		attribute.String("paypal.event_id", event.ID),
		attribute.String("paypal.event_type", event.EventType),
	)

	outcome, ok := eventOutcomes[event.EventType]
	if !ok {
		c.log.Info("PayPal: event %s of type %s ignored", event.ID, event.EventType)
		return nil, nil
	}

	var resource eventResource
	if err := json.Unmarshal(event.Resource, &resource); err != nil {
		return nil, fmt.Errorf("%w: failed to decode resource: %v", ErrInvalidEvent, err)
	}

	// Захват ссылается на заказ через related_ids, событие заказа несёт сам заказ
	intentID := resource.SupplementaryData.RelatedIDs.OrderID
	if intentID == "" && strings.HasPrefix(event.EventType, "CHECKOUT.ORDER.") {
		intentID = resource.ID
	}

	customID := resource.CustomID
	if customID == "" && len(resource.PurchaseUnits) > 0 {
		customID = resource.PurchaseUnits[0].CustomID
	}
	reservationID, _ := strconv.ParseInt(customID, 10, 64)

	return &domain.PaymentConfirmation{
		Provider:      domain.ProviderPayPal,
		EventID:       event.ID,
		ReservationID: reservationID,
		IntentID:      intentID,
		Outcome:       outcome,
	}, nil
}

// verifySignature запрашивает у PayPal проверку подписи webhook
func (c *Client) verifySignature(ctx context.Context, payload []byte, header http.Header) error {
	req := verifySignatureRequest{
		AuthAlgo:         header.Get("PAYPAL-AUTH-ALGO"),
		CertURL:          header.Get("PAYPAL-CERT-URL"),
		TransmissionID:   header.Get("PAYPAL-TRANSMISSION-ID"),
		TransmissionSig:  header.Get("PAYPAL-TRANSMISSION-SIG"),
		TransmissionTime: header.Get("PAYPAL-TRANSMISSION-TIME"),
		WebhookID:        c.cfg.WebhookID,
		WebhookEvent:     json.RawMessage(payload),
	}
	if req.TransmissionID == "" || req.TransmissionSig == "" {
		return fmt.Errorf("%w: missing transmission headers", ErrInvalidSignature)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("%w: payload is not json", ErrInvalidEvent)
	}

	var resp verifySignatureResponse
	if err := c.call(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", req, "", &resp); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if resp.VerificationStatus != "SUCCESS" {
		return fmt.Errorf("%w: status %q", ErrInvalidSignature, resp.VerificationStatus)
	}
	return nil
}

// call выполняет авторизованный запрос к REST API и декодирует ответ в out
func (c *Client) call(ctx context.Context, method, path string, body interface{}, requestID string, out interface{}) error {
	accessToken, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Продолжаем обработку
	case resp.StatusCode == http.StatusUnauthorized:
		c.resetToken()
		return fmt.Errorf("%w: %s %s rejected the access token", ErrUnauthorized, method, path)
	default:
		apiErr := &apiError{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(raw, &apiErr.Response); err != nil {
			apiErr.Response.Message = string(raw)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	return nil
}

// accessToken возвращает закешированный токен или получает новый по client credentials
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.value != "" && c.now().Before(c.token.expiresAt) {
		return c.token.value, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create token request: %v", ErrInternal, err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to execute token request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: token status code %d: %s", ErrUnauthorized, resp.StatusCode, string(body))
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: failed to decode token: %v", ErrInvalidResponse, err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrInvalidResponse)
	}

	c.token = token{
		value:     parsed.AccessToken,
		expiresAt: c.now().Add(time.Duration(parsed.ExpiresIn)*time.Second - tokenExpiryMargin),
	}
	c.log.Info("PayPal: access token refreshed, expires in %ds", parsed.ExpiresIn)
	return c.token.value, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token{}
}

// apiError ответ PayPal с кодом не 2xx
type apiError struct {
	StatusCode int
	Response   ErrorResponse
}

func (e *apiError) Error() string {
	return fmt.Sprintf("paypal api status %d: %s %s", e.StatusCode, e.Response.Name, e.Response.Message)
}

// mapError переводит ошибку создания заказа в доменную
func mapError(err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
}

// orderOutcome сводит статус заказа и его захватов к итогу оплаты
func orderOutcome(o *order) domain.PaymentOutcome {
	switch o.Status {
	case orderVoided:
		return domain.OutcomeCancelled
	case orderCompleted:
		for _, unit := range o.PurchaseUnits {
			if unit.Payments == nil {
				continue
			}
			for _, c := range unit.Payments.Captures {
				switch c.Status {
				case captureCompleted:
					return domain.OutcomeSucceeded
				case captureDeclined, captureFailed:
					return domain.OutcomeFailed
				}
			}
		}
		return domain.OutcomePending
	default:
		return domain.OutcomePending
	}
}

func approvalURL(links []link) string {
	for _, l := range links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

// formatAmount переводит минимальные единицы валюты в десятичную строку PayPal
func formatAmount(cents int64, currency string) string {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(currency)]; ok {
		return strconv.FormatInt(cents, 10)
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
