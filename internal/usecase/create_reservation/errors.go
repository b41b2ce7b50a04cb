package create_reservation

import "errors"

var (
	// ErrWindowNotFound возвращается, когда окно доступности не найдено
	ErrWindowNotFound = errors.New("create_reservation: availability window not found")

	// ErrInvalidTimeSlot возвращается, когда время не является началом слота окна
	ErrInvalidTimeSlot = errors.New("create_reservation: start time is not a slot of the window")

	// ErrSlotInPast возвращается, когда слот уже начался
	ErrSlotInPast = errors.New("create_reservation: slot has already started")

	// ErrOwnWindow возвращается при попытке профессионала забронировать своё окно
	ErrOwnWindow = errors.New("create_reservation: cannot book own availability window")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)
