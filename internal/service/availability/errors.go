package availability

import "errors"

var (
	// ErrWindowNotFound возвращается, когда окно доступности не найдено
	ErrWindowNotFound = errors.New("availability window not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав на операцию
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrWindowInPast возвращается при попытке создать или перенести окно в прошлое
	ErrWindowInPast = errors.New("availability window is in the past")

	// ErrWindowOverlap возвращается, когда окно пересекается с другим окном профессионала
	ErrWindowOverlap = errors.New("availability window overlaps another window")

	// ErrWindowHasActiveReservations возвращается, когда изменение окна затронуло бы активные бронирования
	ErrWindowHasActiveReservations = errors.New("availability window has active reservations")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
