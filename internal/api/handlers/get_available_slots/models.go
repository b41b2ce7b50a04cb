package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-ConsultationService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	WindowID        int64           `json:"windowId"`
	ProfessionalID  int64           `json:"professionalId"`
	Date            string          `json:"date"`
	DurationMinutes int             `json:"durationMinutes"`
	Slots           []AvailableSlot `json:"slots"`
}

// AvailableSlot модель слота с состоянием для запрашивающего пользователя
type AvailableSlot struct {
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	StartsAt      time.Time `json:"startsAt"`
	State         string    `json:"state"`
	ReservationID *int64    `json:"reservationId,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			StartTime:     slot.StartTime.String(),
			EndTime:       slot.EndTime.String(),
			StartsAt:      slot.StartsAt,
			State:         string(slot.State),
			ReservationID: slot.ReservationID,
		}
	}

	return &AvailableSlotsResponse{
		WindowID:        resp.WindowID,
		ProfessionalID:  resp.ProfessionalID,
		Date:            resp.Date.Format(domain.DateFormat),
		DurationMinutes: resp.DurationMinutes,
		Slots:           slots,
	}
}
