package domain

// SlotState represents how a generated slot is seen by the requesting user
type SlotState string

const (
	SlotFree                SlotState = "FREE"
	SlotAwaitingPaymentMine SlotState = "AWAITING_PAYMENT_MINE"
	SlotReserved            SlotState = "RESERVED"
	SlotPast                SlotState = "PAST"
)

// IsBookable returns true if the slot may be booked
func (s SlotState) IsBookable() bool {
	return s == SlotFree
}
