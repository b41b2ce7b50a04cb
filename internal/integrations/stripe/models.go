package stripe

import "github.com/m04kA/SMC-ConsultationService/internal/domain"

// metadataReservationID ключ metadata с id бронирования
const metadataReservationID = "reservation_id"

// Типы webhook событий, которые обрабатывает ядро
const (
	eventPaymentSucceeded = "payment_intent.succeeded"
	eventPaymentFailed    = "payment_intent.payment_failed"
	eventPaymentCanceled  = "payment_intent.canceled"
)

var eventOutcomes = map[string]domain.PaymentOutcome{
	eventPaymentSucceeded: domain.OutcomeSucceeded,
	eventPaymentFailed:    domain.OutcomeFailed,
	eventPaymentCanceled:  domain.OutcomeCancelled,
}

// Config настройки клиента Stripe
type Config struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string // пустой для https://api.stripe.com
}
