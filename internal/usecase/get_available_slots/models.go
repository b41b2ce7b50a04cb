package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Request модель запроса на получение слотов окна
type Request struct {
	UserID      int64 // ID запрашивающего пользователя, 0 - анонимный запрос
	WindowID    int64 // ID окна доступности
	IncludePast bool  // Показывать начавшиеся слоты (состояние PAST)
}

// Response модель ответа со слотами окна
type Response struct {
	WindowID        int64
	ProfessionalID  int64
	Date            time.Time
	DurationMinutes int
	Slots           []Slot
}

// Slot модель слота с состоянием
type Slot struct {
	StartTime     types.TimeString
	EndTime       types.TimeString
	StartsAt      time.Time
	State         domain.SlotState
	ReservationID *int64 // Только для AWAITING_PAYMENT_MINE: бронирование для продолжения оплаты
}
