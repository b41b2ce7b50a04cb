package create_reservation

import (
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-ConsultationService/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	AvailabilityWindowID int64  `json:"availabilityWindowId" validate:"required,gt=0"`
	StartTime            string `json:"startTime" validate:"required,datetime=15:04"` // "14:00"
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(actor domain.Actor) *createReservation.Request {
	return &createReservation.Request{
		Actor:     actor,
		WindowID:  r.AvailabilityWindowID,
		StartTime: r.StartTime,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *models.ReservationResponse {
	return models.FromDomainReservation(resp.Reservation)
}
