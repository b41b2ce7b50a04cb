package stripe

import "errors"

var (
	// ErrMissingSignature возвращается, когда у webhook нет заголовка Stripe-Signature
	ErrMissingSignature = errors.New("stripe client: missing Stripe-Signature header")

	// ErrInvalidEvent возвращается, когда событие не удалось проверить или разобрать
	ErrInvalidEvent = errors.New("stripe client: invalid webhook event")
)
