package slots

import (
	"iter"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// ResolvedSlot слот и его состояние для запрашивающего пользователя
type ResolvedSlot struct {
	Candidate
	State domain.SlotState
	// ReservationID заполняется для AWAITING_PAYMENT_MINE, чтобы клиент мог продолжить оплату
	ReservationID *int64
}

// Resolver сопоставляет слоты с бронированиями окна
// Ничего не кэширует: для свежего состояния вызывающий перечитывает бронирования
type Resolver struct {
	logger Logger
}

// NewResolver создает resolver
func NewResolver(logger Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve определяет состояние каждого слота
//   - активное awaiting_payment бронирование запрашивающего пользователя -> AWAITING_PAYMENT_MINE
//   - любое другое активное бронирование -> RESERVED
//   - нет активных бронирований -> FREE, или PAST если слот уже начался
//
// Несколько активных бронирований на один слот нарушают инвариант хранилища:
// такой слот помечается RESERVED, в лог пишется предупреждение.
func (r *Resolver) Resolve(
	candidates iter.Seq[Candidate],
	reservations []*domain.Reservation,
	requestingUserID int64,
	now time.Time,
) []ResolvedSlot {
	result := make([]ResolvedSlot, 0)

	for c := range candidates {
		active := activeFor(c, reservations)

		slot := ResolvedSlot{Candidate: c}

		switch len(active) {
		case 0:
			slot.State = domain.SlotFree
			if !c.StartsAt.After(now) {
				slot.State = domain.SlotPast
			}
		case 1:
			res := active[0]
			if res.Status == domain.StatusAwaitingPayment && requestingUserID > 0 && res.IsOwnedBy(requestingUserID) {
				slot.State = domain.SlotAwaitingPaymentMine
				id := res.ID
				slot.ReservationID = &id
			} else {
				slot.State = domain.SlotReserved
			}
		default:
			ids := make([]int64, 0, len(active))
			for _, res := range active {
				ids = append(ids, res.ID)
			}
			if r.logger != nil {
				r.logger.Warn("Resolve: inconsistent state, window=%d start=%s has %d active reservations %v",
					c.WindowID, c.StartTime, len(active), ids)
			}
			slot.State = domain.SlotReserved
		}

		result = append(result, slot)
	}

	return result
}

// activeFor возвращает активные бронирования слота
func activeFor(c Candidate, reservations []*domain.Reservation) []*domain.Reservation {
	var active []*domain.Reservation
	for _, res := range reservations {
		if res == nil || !res.IsActive() {
			continue
		}
		if res.SameSlot(c.WindowID, c.StartTime) {
			active = append(active, res)
		}
	}
	return active
}
