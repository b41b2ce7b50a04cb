package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// ReservationStatus represents the lifecycle status of a reservation
type ReservationStatus string

const (
	StatusPendingProfessionalApproval ReservationStatus = "pending_professional_approval"
	StatusAwaitingPayment             ReservationStatus = "awaiting_payment"
	StatusPaid                        ReservationStatus = "paid"
	StatusApproved                    ReservationStatus = "approved"
	StatusRefused                     ReservationStatus = "refused"
	StatusCancelled                   ReservationStatus = "cancelled"
)

// Legacy status names still sent by older clients
const (
	LegacyStatusPending         = "EN_ATTENTE"
	LegacyStatusAwaitingPayment = "EN_ATTENTE_PAIEMENT"
	LegacyStatusPaid            = "PAYEE"
	LegacyStatusApproved        = "VALIDE"
	LegacyStatusRefused         = "REFUSE"
	LegacyStatusCancelled       = "ANNULEE"
)

var legacyToStatus = map[string]ReservationStatus{
	LegacyStatusPending:         StatusPendingProfessionalApproval,
	LegacyStatusAwaitingPayment: StatusAwaitingPayment,
	LegacyStatusPaid:            StatusPaid,
	LegacyStatusApproved:        StatusApproved,
	LegacyStatusRefused:         StatusRefused,
	LegacyStatusCancelled:       StatusCancelled,
}

// IsValid returns true if the status belongs to the canonical vocabulary
func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusPendingProfessionalApproval, StatusAwaitingPayment, StatusPaid,
		StatusApproved, StatusRefused, StatusCancelled:
		return true
	}
	return false
}

// IsActive returns true if a reservation in this status blocks its slot
func (s ReservationStatus) IsActive() bool {
	switch s {
	case StatusPendingProfessionalApproval, StatusAwaitingPayment, StatusPaid, StatusApproved:
		return true
	}
	return false
}

// IsTerminal returns true if no further transition is possible
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRefused || s == StatusCancelled
}

// Legacy returns the legacy name of the status
func (s ReservationStatus) Legacy() string {
	for legacy, status := range legacyToStatus {
		if status == s {
			return legacy
		}
	}
	return ""
}

// StatusFromLegacy maps a canonical or legacy status name to the canonical status
func StatusFromLegacy(name string) (ReservationStatus, error) {
	trimmed := strings.TrimSpace(name)
	if status := ReservationStatus(strings.ToLower(trimmed)); status.IsValid() {
		return status, nil
	}
	if status, ok := legacyToStatus[strings.ToUpper(trimmed)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown reservation status %q", name)
}

// PaymentProvider identifies the payment gateway
type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderPayPal PaymentProvider = "paypal"
)

// Reservation represents a user's claim on one slot of an availability window
type Reservation struct {
	ID             int64
	WindowID       int64
	StartTime      types.TimeString // slot snapshot
	UserID         int64
	ProfessionalID int64 // denormalized from the window
	Status         ReservationStatus

	// Payment snapshot, set when the payment is initiated
	PaymentProvider *PaymentProvider
	PaymentIntentID *string
	AmountCents     *int64
	Currency        *string

	StatusChangedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive returns true if the reservation blocks its slot
func (r *Reservation) IsActive() bool {
	return r.Status.IsActive()
}

// SameSlot returns true if the reservation targets the given slot
func (r *Reservation) SameSlot(windowID int64, startTime types.TimeString) bool {
	return r.WindowID == windowID && r.StartTime == startTime
}

// IsOwnedBy returns true if the reservation belongs to the user
func (r *Reservation) IsOwnedBy(userID int64) bool {
	return r.UserID == userID
}
