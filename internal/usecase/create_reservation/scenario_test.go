package create_reservation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/reservations"
	"github.com/m04kA/SMC-ConsultationService/internal/slots"
	"github.com/m04kA/SMC-ConsultationService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Окно 14:00-15:30, консультация 45 минут: слоты 14:00 и 14:45
func TestScenario_BookApprovePayApprove(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	windows := testWindows()

	book := newUseCase(store, nil)
	lifecycle := reservations.NewService(store, nil, nil, nopLogger{})
	view := get_available_slots.NewUseCase(windows, store, slots.NewResolver(nopLogger{}), 45, nopLogger{}).
		WithTimeProvider(fixedTime{now: morning})

	statesFor := func(actor domain.Actor) map[types.TimeString]domain.SlotState {
		resp, err := view.Execute(ctx, &get_available_slots.Request{UserID: actor.UserID, WindowID: 11})
		require.NoError(t, err)
		out := make(map[types.TimeString]domain.SlotState)
		for _, s := range resp.Slots {
			out[s.StartTime] = s.State
		}
		return out
	}

	assert.Equal(t, map[types.TimeString]domain.SlotState{
		"14:00": domain.SlotFree,
		"14:45": domain.SlotFree,
	}, statesFor(userA))

	// A бронирует 14:00
	booked, err := book.Execute(ctx, &Request{Actor: userA, WindowID: 11, StartTime: "14:00"})
	require.NoError(t, err)
	id := booked.Reservation.ID
	assert.Equal(t, domain.SlotReserved, statesFor(userA)["14:00"])
	assert.Equal(t, domain.SlotFree, statesFor(userB)["14:45"])

	// B опоздал на 14:00
	_, err = book.Execute(ctx, &Request{Actor: userB, WindowID: 11, StartTime: "14:00"})
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

	// Оплата до подтверждения невозможна
	_, err = lifecycle.Pay(ctx, domain.SystemActor, id)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	// Профессионал подтверждает: A видит слот как ожидающий своей оплаты
	_, err = lifecycle.Approve(ctx, professional, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotAwaitingPaymentMine, statesFor(userA)["14:00"])
	assert.Equal(t, domain.SlotReserved, statesFor(userB)["14:00"])

	// Подтверждение оплаты приходит дважды
	paid, err := lifecycle.Pay(ctx, domain.SystemActor, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Reservation.Status)
	duplicate, err := lifecycle.Pay(ctx, domain.SystemActor, id)
	require.NoError(t, err)
	assert.True(t, duplicate.Noop)

	// После оплаты отмена пользователем запрещена
	_, err = lifecycle.Cancel(ctx, userA, id)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	final, err := lifecycle.Approve(ctx, professional, id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusApproved), final.Status)
	assert.Equal(t, domain.SlotReserved, statesFor(userA)["14:00"])
}

func TestScenario_CancelledSlotIsRebookable(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	book := newUseCase(store, nil)
	lifecycle := reservations.NewService(store, nil, nil, nopLogger{})

	first, err := book.Execute(ctx, &Request{Actor: userA, WindowID: 11, StartTime: "14:45"})
	require.NoError(t, err)

	_, err = lifecycle.Cancel(ctx, userA, first.Reservation.ID)
	require.NoError(t, err)

	second, err := book.Execute(ctx, &Request{Actor: userB, WindowID: 11, StartTime: "14:45"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Reservation.ID, second.Reservation.ID)

	// Отказ профессионала тоже освобождает слот
	_, err = lifecycle.Refuse(ctx, professional, second.Reservation.ID)
	require.NoError(t, err)

	_, err = book.Execute(ctx, &Request{Actor: userA, WindowID: 11, StartTime: "14:45"})
	assert.NoError(t, err)
}
