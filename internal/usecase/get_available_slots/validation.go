package get_available_slots

import "fmt"

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.WindowID <= 0 {
		return fmt.Errorf("%w: windowID must be positive", ErrInvalidInput)
	}

	if req.UserID < 0 {
		return fmt.Errorf("%w: userID must not be negative", ErrInvalidInput)
	}

	return nil
}
