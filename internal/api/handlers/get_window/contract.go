package get_window

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/service/availability/models"
)

type AvailabilityService interface {
	GetByID(ctx context.Context, windowID int64) (*models.WindowResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
