package create_reservation

import (
	"fmt"

	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// validateRequest валидирует входные данные запроса и разбирает время начала
func validateRequest(req *Request) (types.TimeString, error) {
	if req.Actor.UserID <= 0 {
		return "", fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.WindowID <= 0 {
		return "", fmt.Errorf("%w: windowID must be positive", ErrInvalidInput)
	}

	if req.StartTime == "" {
		return "", fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	startTime, err := types.NewTimeStringFromString(req.StartTime)
	if err != nil {
		return "", fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	return startTime, nil
}
