package paypal

import (
	"encoding/json"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// Config настройки клиента PayPal REST API
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	WebhookID    string
	ReturnURL    string
	CancelURL    string
}

// Статусы заказа и захвата
const (
	orderCompleted = "COMPLETED"
	orderVoided    = "VOIDED"

	captureCompleted = "COMPLETED"
	captureDeclined  = "DECLINED"
	captureFailed    = "FAILED"
)

// Issue коды ошибок PayPal, которые влияют на итог
const (
	issueOrderAlreadyCaptured = "ORDER_ALREADY_CAPTURED"
	issueOrderNotApproved     = "ORDER_NOT_APPROVED"
	issueInstrumentDeclined   = "INSTRUMENT_DECLINED"
)

// События webhook, которые обрабатывает ядро
var eventOutcomes = map[string]domain.PaymentOutcome{
	"PAYMENT.CAPTURE.COMPLETED": domain.OutcomeSucceeded,
	"PAYMENT.CAPTURE.DENIED":    domain.OutcomeFailed,
	"CHECKOUT.ORDER.VOIDED":     domain.OutcomeCancelled,
	"PAYMENT.CAPTURE.REVERSED":  domain.OutcomeCancelled,
}

// Валюты без дробной части
var zeroDecimalCurrencies = map[string]struct{}{
	"HUF": {},
	"JPY": {},
	"TWD": {},
}

// token закешированный access token
type token struct {
	value     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // секунды
}

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	CustomID    string    `json:"custom_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      *money    `json:"amount,omitempty"`
	Payments    *payments `json:"payments,omitempty"`
}

type payments struct {
	Captures []capture `json:"captures"`
}

type capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type createOrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []purchaseUnit      `json:"purchase_units"`
	ApplicationContext *applicationContext `json:"application_context,omitempty"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// order заказ PayPal Orders v2
type order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
	Links         []link         `json:"links"`
}

// ErrorResponse модель ошибки от PayPal
type ErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

// hasIssue проверяет наличие issue в ответе
func (e *ErrorResponse) hasIssue(issue string) bool {
	for _, d := range e.Details {
		if d.Issue == issue {
			return true
		}
	}
	return false
}

type verifySignatureRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifySignatureResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// webhookEvent событие PayPal; resource зависит от типа события
type webhookEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

// eventResource общие поля захвата и заказа
type eventResource struct {
	ID                string         `json:"id"`
	CustomID          string         `json:"custom_id"`
	PurchaseUnits     []purchaseUnit `json:"purchase_units"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}
