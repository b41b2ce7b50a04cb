package domain

// PaymentOutcome outcome reported by a payment gateway
type PaymentOutcome string

const (
	OutcomePending   PaymentOutcome = "PENDING"
	OutcomeSucceeded PaymentOutcome = "SUCCEEDED"
	OutcomeFailed    PaymentOutcome = "FAILED"
	OutcomeCancelled PaymentOutcome = "CANCELLED"
)

// IsTerminal returns true for outcomes the lifecycle reacts to
func (o PaymentOutcome) IsTerminal() bool {
	return o == OutcomeSucceeded || o == OutcomeFailed || o == OutcomeCancelled
}

// PaymentIntentRequest what the core asks the gateway to charge
type PaymentIntentRequest struct {
	ReservationID int64
	AmountCents   int64
	Currency      string
	Description   string
	// IdempotencyKey is stable for retries of one payment attempt
	IdempotencyKey string
}

// PaymentIntent created by the gateway. Stripe returns a client secret,
// PayPal an approval URL.
type PaymentIntent struct {
	ID            string
	Provider      PaymentProvider
	ReservationID int64
	AmountCents   int64
	Currency      string
	ClientSecret  string
	ApprovalURL   string
}

// PaymentConfirmation an outcome delivered by a webhook or by a client confirmation
type PaymentConfirmation struct {
	Provider      PaymentProvider
	EventID       string // empty for client confirmations
	ReservationID int64
	IntentID      string
	Outcome       PaymentOutcome
}
