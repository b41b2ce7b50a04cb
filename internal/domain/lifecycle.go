package domain

import "fmt"

// Action is a lifecycle event applied to a reservation
type Action string

const (
	ActionBook    Action = "book"
	ActionApprove Action = "approve"
	ActionRefuse  Action = "refuse"
	ActionPay     Action = "pay"
	ActionCancel  Action = "cancel"
	ActionTimeout Action = "timeout"
)

type transitionKey struct {
	from   ReservationStatus
	action Action
}

// transitions legal moves of the reservation state machine.
// The empty status stands for "no reservation yet".
var transitions = map[transitionKey]ReservationStatus{
	{"", ActionBook}: StatusPendingProfessionalApproval,

	{StatusPendingProfessionalApproval, ActionApprove}: StatusAwaitingPayment,
	{StatusPaid, ActionApprove}:                        StatusApproved,

	{StatusPendingProfessionalApproval, ActionRefuse}: StatusRefused,
	{StatusAwaitingPayment, ActionRefuse}:             StatusRefused,

	{StatusAwaitingPayment, ActionPay}: StatusPaid,

	{StatusPendingProfessionalApproval, ActionCancel}: StatusCancelled,
	{StatusAwaitingPayment, ActionCancel}:             StatusCancelled,

	{StatusAwaitingPayment, ActionTimeout}: StatusCancelled,
}

// idempotent actions that are accepted without a state change
var idempotent = map[transitionKey]struct{}{
	{StatusPaid, ActionPay}:     {},
	{StatusApproved, ActionPay}: {},
}

// NextStatus computes the status reached by applying action to from.
// noop is true when the action is a tolerated duplicate and the status stays the same.
func NextStatus(from ReservationStatus, action Action) (to ReservationStatus, noop bool, err error) {
	key := transitionKey{from: from, action: action}

	if next, ok := transitions[key]; ok {
		return next, false, nil
	}
	if _, ok := idempotent[key]; ok {
		return from, true, nil
	}

	return from, false, fmt.Errorf("%w: %s from %q", ErrIllegalTransition, action, from)
}

// Actions lists every lifecycle action
func Actions() []Action {
	return []Action{ActionBook, ActionApprove, ActionRefuse, ActionPay, ActionCancel, ActionTimeout}
}
