package confirm_payment

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// WebhookRequest входящий webhook платёжного шлюза
type WebhookRequest struct {
	Provider domain.PaymentProvider
	Payload  []byte
	Header   http.Header
}

// ClientRequest подтверждение оплаты клиентом после редиректа
// Исход платежа перепроверяется у шлюза, клиенту не доверяем
type ClientRequest struct {
	Actor         domain.Actor
	ReservationID int64
}

// Result итог обработки подтверждения
type Result struct {
	ReservationID int64
	Outcome       domain.PaymentOutcome
	Status        domain.ReservationStatus // Статус бронирования после обработки
	Duplicate     bool                     // Событие уже обрабатывалось
	Noop          bool                     // Бронирование уже было оплачено
	Rejected      bool                     // Оплата пришла для отменённого или отклонённого бронирования
}

// Config параметры подтверждения оплаты
type Config struct {
	Timeout time.Duration // Таймаут вызова платёжного шлюза
}
