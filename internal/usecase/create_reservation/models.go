package create_reservation

import (
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// Request модель запроса на создание бронирования
type Request struct {
	Actor     domain.Actor // Пользователь, от имени которого создается бронирование
	WindowID  int64        // ID окна доступности
	StartTime string       // Время начала слота (например, "14:00")
}

// Response модель ответа с созданным бронированием
type Response struct {
	Reservation *domain.Reservation
}
