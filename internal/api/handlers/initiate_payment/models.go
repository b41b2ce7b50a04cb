package initiate_payment

import (
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations/models"
	initiatePayment "github.com/m04kA/SMC-ConsultationService/internal/usecase/initiate_payment"
)

// PaymentIntentResponse данные для завершения оплаты на стороне клиента
type PaymentIntentResponse struct {
	Provider     string `json:"provider"`
	IntentID     string `json:"intentId"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"clientSecret,omitempty"` // Stripe
	ApprovalURL  string `json:"approvalUrl,omitempty"`  // PayPal
}

// InitiatePaymentResponse HTTP response model
type InitiatePaymentResponse struct {
	Reservation *models.ReservationResponse `json:"reservation"`
	Payment     PaymentIntentResponse       `json:"payment"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *initiatePayment.Response) *InitiatePaymentResponse {
	return &InitiatePaymentResponse{
		Reservation: models.FromDomainReservation(resp.Reservation),
		Payment: PaymentIntentResponse{
			Provider:     string(resp.Intent.Provider),
			IntentID:     resp.Intent.ID,
			AmountCents:  resp.Intent.AmountCents,
			Currency:     resp.Intent.Currency,
			ClientSecret: resp.Intent.ClientSecret,
			ApprovalURL:  resp.Intent.ApprovalURL,
		},
	}
}
