package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// AvailabilityWindow a block of time on a date during which a professional
// accepts consultations. The window is [StartTime, EndTime).
type AvailabilityWindow struct {
	ID             int64
	ProfessionalID int64
	Date           time.Time
	StartTime      types.TimeString
	EndTime        types.TimeString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the window bounds and that it fits at least one consultation
func (w *AvailabilityWindow) Validate(durationMinutes int) error {
	if w.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidWindow)
	}

	start, err := w.StartTime.Minutes()
	if err != nil {
		return fmt.Errorf("%w: start time: %v", ErrInvalidWindow, err)
	}
	end, err := w.EndTime.Minutes()
	if err != nil {
		return fmt.Errorf("%w: end time: %v", ErrInvalidWindow, err)
	}

	if start >= end {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidWindow, w.StartTime, w.EndTime)
	}

	if durationMinutes <= 0 || end-start < durationMinutes {
		return fmt.Errorf("%w: window %s-%s does not fit a %d minute consultation",
			ErrInvalidWindow, w.StartTime, w.EndTime, durationMinutes)
	}

	return nil
}

// StartsAt returns the absolute start of the window in the date's location
func (w *AvailabilityWindow) StartsAt() (time.Time, error) {
	return w.StartTime.On(w.Date)
}

// EndsAt returns the absolute end of the window in the date's location
func (w *AvailabilityWindow) EndsAt() (time.Time, error) {
	return w.EndTime.On(w.Date)
}

// Overlaps returns true if both windows belong to the same day and their intervals intersect
func (w *AvailabilityWindow) Overlaps(other *AvailabilityWindow) bool {
	if w.Date.Format(DateFormat) != other.Date.Format(DateFormat) {
		return false
	}
	return w.StartTime.IsBefore(other.EndTime) && other.StartTime.IsBefore(w.EndTime)
}

// IsOwnedBy returns true if the window belongs to the professional
func (w *AvailabilityWindow) IsOwnedBy(professionalID int64) bool {
	return w.ProfessionalID == professionalID
}
