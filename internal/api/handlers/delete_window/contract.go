package delete_window

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/availability/models"
)

type AvailabilityService interface {
	Delete(ctx context.Context, actor domain.Actor, windowID int64, cascade bool) (*models.DeleteWindowResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
