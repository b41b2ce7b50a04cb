package expire_reservations

import "time"

// DefaultBatchSize сколько бронирований обрабатывается за один проход
const DefaultBatchSize = 100

// Config параметры истечения неоплаченных бронирований
type Config struct {
	AwaitingPaymentTimeout time.Duration // Сколько бронирование может ждать оплату
	BatchSize              uint64
}

// Response итог прохода
type Response struct {
	Expired []int64 // Отменённые по таймауту бронирования
	Skipped []int64 // Бронирования, статус которых изменился во время прохода
}
