package initiate_payment

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// Config параметры оплаты консультации
type Config struct {
	PriceCents int64
	Currency   string
	Timeout    time.Duration // Таймаут вызова платёжного шлюза
}

// Request модель запроса на создание платежа
type Request struct {
	Actor         domain.Actor
	ReservationID int64
}

// Response модель ответа с созданным платежом
type Response struct {
	Reservation *domain.Reservation
	Intent      *domain.PaymentIntent
}
