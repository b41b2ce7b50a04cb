package paypal

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paypal client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от PayPal
	ErrInvalidResponse = errors.New("paypal client: invalid response")

	// ErrUnauthorized возвращается, когда PayPal не выдал access token
	ErrUnauthorized = errors.New("paypal client: unauthorized")

	// ErrInvalidSignature возвращается, когда PayPal не подтвердил подпись webhook
	ErrInvalidSignature = errors.New("paypal client: webhook signature not verified")

	// ErrInvalidEvent возвращается, когда событие webhook не удалось разобрать
	ErrInvalidEvent = errors.New("paypal client: invalid webhook event")
)
