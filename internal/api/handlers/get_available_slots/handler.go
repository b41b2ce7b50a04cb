package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	getAvailableSlots "github.com/m04kA/SMC-ConsultationService/internal/usecase/get_available_slots"
)

const (
	msgInvalidWindowID    = "некорректный ID окна"
	msgInvalidIncludePast = "параметр includePast должен быть true или false"
	msgWindowNotFound     = "окно доступности не найдено"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability/{windowId}/slots
// Query params: includePast (опционально)
// Пользователь берётся из OptionalAuth, без него все занятые слоты показываются как RESERVED
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	windowID, err := handlers.PathID(r, "windowId")
	if err != nil {
		h.logger.Warn("GET /availability/{id}/slots - Invalid window ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindowID)
		return
	}

	includePast := false
	if raw := r.URL.Query().Get("includePast"); raw != "" {
		includePast, err = strconv.ParseBool(raw)
		if err != nil {
			h.logger.Warn("GET /availability/{id}/slots - Invalid includePast: %q", raw)
			handlers.RespondBadRequest(w, msgInvalidIncludePast)
			return
		}
	}

	userID, _ := middleware.GetUserID(r.Context())

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		UserID:      userID,
		WindowID:    windowID,
		IncludePast: includePast,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrWindowNotFound):
			h.logger.Warn("GET /availability/{id}/slots - Window not found: window_id=%d", windowID)
			handlers.RespondNotFound(w, msgWindowNotFound)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /availability/{id}/slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidWindowID)

		default:
			h.logger.Error("GET /availability/{id}/slots - Failed to get slots: window_id=%d, error=%v", windowID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability/{id}/slots - Slots retrieved successfully: window_id=%d, user_id=%d, slots_count=%d",
		windowID, userID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
