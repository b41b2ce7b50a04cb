package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// ErrPublish возвращается, когда событие не удалось опубликовать
var ErrPublish = errors.New("notifier: failed to publish event")

// routingKeyPrefix ключ маршрутизации: reservation.<action>
const routingKeyPrefix = "reservation."

// Channel часть amqp.Channel, нужная для публикации
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RabbitMQNotifier публикует события жизненного цикла бронирований в topic exchange
type RabbitMQNotifier struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	log      Logger
}

// NewRabbitMQNotifier подключается к брокеру и объявляет exchange
func NewRabbitMQNotifier(url, exchange string, log Logger) (*RabbitMQNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	n := NewRabbitMQNotifierWithChannel(ch, exchange, log)
	n.conn = conn
	return n, nil
}

// NewRabbitMQNotifierWithChannel создает notifier поверх готового канала
func NewRabbitMQNotifierWithChannel(ch Channel, exchange string, log Logger) *RabbitMQNotifier {
	return &RabbitMQNotifier{ch: ch, exchange: exchange, log: log}
}

// Notify публикует событие с ключом reservation.<action>
func (n *RabbitMQNotifier) Notify(ctx context.Context, event domain.LifecycleEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: failed to encode event: %v", ErrPublish, err)
	}

	key := RoutingKey(event.Action)
	err = n.ch.PublishWithContext(ctx, n.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt,
		Type:         key,
		Body:         body,
	})
	if err != nil {
		n.log.Error("Notify: failed to publish %s for reservation id=%d: %v", key, event.ReservationID, err)
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	n.log.Info("Notify: published %s for reservation id=%d (%s -> %s)", key, event.ReservationID, event.From, event.To)
	return nil
}

// Close закрывает канал и соединение
func (n *RabbitMQNotifier) Close() error {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// RoutingKey возвращает ключ маршрутизации для действия
func RoutingKey(action domain.Action) string {
	return routingKeyPrefix + string(action)
}
