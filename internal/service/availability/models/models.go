package models

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Request модели

// WindowRequest даты и границы окна
type WindowRequest struct {
	Date      string `json:"date"`      // YYYY-MM-DD
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
}

// CreateWindowRequest запрос на создание окна
type CreateWindowRequest struct {
	WindowRequest
	ProfessionalID *int64 `json:"professionalId,omitempty"` // только для администратора
}

// UpdateWindowRequest запрос на изменение окна
type UpdateWindowRequest struct {
	WindowRequest
}

// ToDomain разбирает запрос в domain модель окна
// Дата интерпретируется в часовом поясе сервиса
func (r *WindowRequest) ToDomain(location *time.Location) (*domain.AvailabilityWindow, error) {
	date, err := time.ParseInLocation(domain.DateFormat, r.Date, location)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %v", r.Date, err)
	}
	start, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %v", err)
	}
	end, err := types.NewTimeStringFromString(r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end time: %v", err)
	}

	return &domain.AvailabilityWindow{
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}, nil
}

// ListWindowsRequest фильтр окон профессионала
type ListWindowsRequest struct {
	From *time.Time
	To   *time.Time
}

// Response модели

// WindowResponse ответ с данными окна
type WindowResponse struct {
	ID             int64     `json:"id"`
	ProfessionalID int64     `json:"professionalId"`
	Date           string    `json:"date"`
	StartTime      string    `json:"startTime"`
	EndTime        string    `json:"endTime"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// WindowListResponse список окон
type WindowListResponse struct {
	Windows []WindowResponse `json:"windows"`
	Total   int              `json:"total"`
}

// DeleteWindowResponse результат удаления окна
type DeleteWindowResponse struct {
	WindowID                int64   `json:"windowId"`
	CancelledReservationIDs []int64 `json:"cancelledReservationIds"`
}

// FromDomainWindow конвертирует domain модель в response
func FromDomainWindow(w *domain.AvailabilityWindow) *WindowResponse {
	return &WindowResponse{
		ID:             w.ID,
		ProfessionalID: w.ProfessionalID,
		Date:           w.Date.Format(domain.DateFormat),
		StartTime:      w.StartTime.String(),
		EndTime:        w.EndTime.String(),
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

// FromDomainWindows конвертирует список domain моделей в response
func FromDomainWindows(list []*domain.AvailabilityWindow) *WindowListResponse {
	resp := &WindowListResponse{
		Windows: make([]WindowResponse, 0, len(list)),
		Total:   len(list),
	}
	for _, w := range list {
		resp.Windows = append(resp.Windows, *FromDomainWindow(w))
	}
	return resp
}
