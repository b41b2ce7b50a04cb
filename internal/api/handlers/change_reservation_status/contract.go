package change_reservation_status

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
)

type ReservationService interface {
	Approve(ctx context.Context, actor domain.Actor, id int64) (*models.ReservationResponse, error)
	Refuse(ctx context.Context, actor domain.Actor, id int64) (*models.ReservationResponse, error)
	Cancel(ctx context.Context, actor domain.Actor, id int64) (*models.ReservationResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
