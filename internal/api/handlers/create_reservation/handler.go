package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	createReservation "github.com/m04kA/SMC-ConsultationService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgWindowNotFound     = "окно доступности не найдено"
	msgInvalidTimeSlot    = "время не совпадает с началом слота окна"
	msgSlotInPast         = "слот уже начался"
	msgOwnWindow          = "нельзя забронировать собственное окно"
	msgSlotNotAvailable   = "выбранный слот уже занят, обновите список слотов"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.ValidateStruct(&req); err != nil {
		h.logger.Warn("POST /reservations - Validation failed: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(actor))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotUnavailable):
			h.logger.Warn("POST /reservations - Slot not available: window_id=%d, start_time=%s, user_id=%d",
				req.AvailabilityWindowID, req.StartTime, actor.UserID)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createReservation.ErrWindowNotFound):
			h.logger.Warn("POST /reservations - Window not found: window_id=%d", req.AvailabilityWindowID)
			handlers.RespondNotFound(w, msgWindowNotFound)

		case errors.Is(err, createReservation.ErrInvalidTimeSlot):
			h.logger.Warn("POST /reservations - Invalid time slot: window_id=%d, start_time=%s",
				req.AvailabilityWindowID, req.StartTime)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, createReservation.ErrSlotInPast):
			h.logger.Warn("POST /reservations - Slot in past: window_id=%d, start_time=%s",
				req.AvailabilityWindowID, req.StartTime)
			handlers.RespondBadRequest(w, msgSlotInPast)

		case errors.Is(err, createReservation.ErrOwnWindow):
			h.logger.Warn("POST /reservations - Own window: window_id=%d, user_id=%d", req.AvailabilityWindowID, actor.UserID)
			handlers.RespondForbidden(w, msgOwnWindow)

		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: window_id=%d, user_id=%d, error=%v",
				req.AvailabilityWindowID, actor.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created successfully: reservation_id=%d, window_id=%d, user_id=%d",
		result.Reservation.ID, req.AvailabilityWindowID, actor.UserID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
