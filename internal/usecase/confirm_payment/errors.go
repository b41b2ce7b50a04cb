package confirm_payment

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование для платежа не найдено
	ErrReservationNotFound = errors.New("confirm_payment: reservation not found")

	// ErrAccessDenied возвращается, когда подтверждает не владелец бронирования
	ErrAccessDenied = errors.New("confirm_payment: access denied")

	// ErrProviderNotConfigured возвращается для webhook шлюза, который не подключён
	ErrProviderNotConfigured = errors.New("confirm_payment: payment provider not configured")

	// ErrInvalidWebhook возвращается, когда webhook не прошёл проверку подписи или разбор
	ErrInvalidWebhook = errors.New("confirm_payment: invalid webhook")

	// ErrNoPaymentIntent возвращается, когда у бронирования ещё нет платежа
	ErrNoPaymentIntent = errors.New("confirm_payment: reservation has no payment intent")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("confirm_payment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("confirm_payment: internal error")
)
