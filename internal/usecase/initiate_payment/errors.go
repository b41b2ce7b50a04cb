package initiate_payment

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("initiate_payment: reservation not found")

	// ErrAccessDenied возвращается, когда оплату инициирует не владелец бронирования
	ErrAccessDenied = errors.New("initiate_payment: access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("initiate_payment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("initiate_payment: internal error")
)
