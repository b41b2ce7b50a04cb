package list_windows

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/availability/models"
)

// ToServiceRequest формирует фильтр по датам из query параметров
// Пустой параметр означает отсутствие границы
func ToServiceRequest(fromStr, toStr string) (*models.ListWindowsRequest, error) {
	req := &models.ListWindowsRequest{}

	if fromStr != "" {
		from, err := time.Parse(domain.DateFormat, fromStr)
		if err != nil {
			return nil, fmt.Errorf("from: %v", err)
		}
		req.From = &from
	}

	if toStr != "" {
		to, err := time.Parse(domain.DateFormat, toStr)
		if err != nil {
			return nil, fmt.Errorf("to: %v", err)
		}
		req.To = &to
	}

	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, fmt.Errorf("to %s is before from %s", toStr, fromStr)
	}

	return req, nil
}
