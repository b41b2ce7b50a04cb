package models

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// Request модели

// ListReservationsRequest запрос на получение списка бронирований
type ListReservationsRequest struct {
	Actor  domain.Actor
	Status *string // каноническое или legacy имя статуса (опционально)
}

// Response модели

// PaymentResponse снимок платежа бронирования
type PaymentResponse struct {
	Provider    string `json:"provider"`
	IntentID    string `json:"intentId"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID                   int64            `json:"id"`
	AvailabilityWindowID int64            `json:"availabilityWindowId"`
	StartTime            string           `json:"startTime"`
	UserID               int64            `json:"userId"`
	ProfessionalID       int64            `json:"professionalId"`
	Status               string           `json:"status"`
	LegacyStatus         string           `json:"legacyStatus"`
	Payment              *PaymentResponse `json:"payment,omitempty"`
	StatusChangedAt      time.Time        `json:"statusChangedAt"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// ReservationListResponse список бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Total        int                   `json:"total"`
}

// TransitionResult результат применения действия жизненного цикла
type TransitionResult struct {
	Reservation *domain.Reservation
	From        domain.ReservationStatus
	Noop        bool // повторное действие, статус не изменился
}

// Конвертеры

// FromDomainReservation конвертирует domain модель в response
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	resp := &ReservationResponse{
		ID:                   r.ID,
		AvailabilityWindowID: r.WindowID,
		StartTime:            r.StartTime.String(),
		UserID:               r.UserID,
		ProfessionalID:       r.ProfessionalID,
		Status:               string(r.Status),
		LegacyStatus:         r.Status.Legacy(),
		StatusChangedAt:      r.StatusChangedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}

	if r.PaymentProvider != nil && r.PaymentIntentID != nil {
		payment := &PaymentResponse{
			Provider: string(*r.PaymentProvider),
			IntentID: *r.PaymentIntentID,
		}
		if r.AmountCents != nil {
			payment.AmountCents = *r.AmountCents
		}
		if r.Currency != nil {
			payment.Currency = *r.Currency
		}
		resp.Payment = payment
	}

	return resp
}

// FromDomainReservations конвертирует список domain моделей в response
func FromDomainReservations(list []*domain.Reservation) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(list)),
		Total:        len(list),
	}
	for _, r := range list {
		resp.Reservations = append(resp.Reservations, *FromDomainReservation(r))
	}
	return resp
}

// ParseStatusFilter разбирает фильтр статуса из запроса
func ParseStatusFilter(status *string) (*domain.ReservationStatus, error) {
	if status == nil || *status == "" {
		return nil, nil
	}
	parsed, err := domain.StatusFromLegacy(*status)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
