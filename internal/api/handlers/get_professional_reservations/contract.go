package get_professional_reservations

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
)

type ReservationService interface {
	ListByProfessional(ctx context.Context, professionalID int64, req *models.ListReservationsRequest) (*models.ReservationListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
