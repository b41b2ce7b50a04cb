package confirm_payment

import (
	confirmPayment "github.com/m04kA/SMC-ConsultationService/internal/usecase/confirm_payment"
)

// ConfirmPaymentResponse HTTP response model
type ConfirmPaymentResponse struct {
	ReservationID int64  `json:"reservationId"`
	Outcome       string `json:"outcome"`
	Status        string `json:"status"`
}

// FromUseCaseResult конвертирует результат use case в HTTP response
func FromUseCaseResult(result *confirmPayment.Result) *ConfirmPaymentResponse {
	return &ConfirmPaymentResponse{
		ReservationID: result.ReservationID,
		Outcome:       string(result.Outcome),
		Status:        string(result.Status),
	}
}
