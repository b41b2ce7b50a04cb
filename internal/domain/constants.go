package domain

// Default configuration values
const (
	DefaultConsultationDurationMinutes = 45
)

// Business validation constants
const (
	MinConsultationDurationMinutes = 5
	MaxConsultationDurationMinutes = 480 // 8 hours
	MaxListRangeDays               = 366
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses statuses that hold a slot.
// Used by the partial unique index and by slot resolution.
var ActiveStatuses = []ReservationStatus{
	StatusPendingProfessionalApproval,
	StatusAwaitingPayment,
	StatusPaid,
	StatusApproved,
}

// InactiveStatuses statuses that release a slot for re-booking.
var InactiveStatuses = []ReservationStatus{
	StatusRefused,
	StatusCancelled,
}

// CascadeCancellableStatuses statuses a window deletion may cancel on its own.
var CascadeCancellableStatuses = []ReservationStatus{
	StatusPendingProfessionalApproval,
	StatusAwaitingPayment,
}
