package domain

import "errors"

// Domain error taxonomy shared by services, usecases and adapters.
var (
	// ErrInvalidWindow is returned for a malformed availability window
	// (end not after start, or too short for a single consultation).
	ErrInvalidWindow = errors.New("domain: invalid availability window")

	// ErrSlotUnavailable is returned when a booking lost the race or targeted a non-free slot.
	ErrSlotUnavailable = errors.New("domain: slot unavailable")

	// ErrIllegalTransition is returned when the lifecycle does not allow the requested action.
	ErrIllegalTransition = errors.New("domain: illegal reservation transition")

	// ErrGatewayUnavailable is returned when the payment gateway could not be reached.
	ErrGatewayUnavailable = errors.New("domain: payment gateway unavailable")

	// ErrPaymentFailed is returned when the gateway declined or failed a payment.
	ErrPaymentFailed = errors.New("domain: payment failed")

	// ErrInvalidAmount is returned when the gateway rejects the amount or currency.
	ErrInvalidAmount = errors.New("domain: invalid payment amount")

	// ErrStaleView accompanies ErrSlotUnavailable: the caller's slot view is older
	// than the store and must be re-resolved before retrying.
	ErrStaleView = errors.New("domain: stale slot view")
)
