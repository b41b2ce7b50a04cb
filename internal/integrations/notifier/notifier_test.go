package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) record(format string, v ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Info(format string, v ...interface{})  { l.record(format, v...) }
func (l *recordingLogger) Warn(format string, v ...interface{})  { l.record(format, v...) }
func (l *recordingLogger) Error(format string, v ...interface{}) { l.record(format, v...) }

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	messages []published
	err      error
	closed   bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func testEvent() domain.LifecycleEvent {
	return domain.LifecycleEvent{
		ReservationID:  42,
		WindowID:       11,
		StartTime:      "14:00",
		UserID:         100,
		ProfessionalID: 7,
		Action:         domain.ActionApprove,
		From:           domain.StatusPendingProfessionalApproval,
		To:             domain.StatusAwaitingPayment,
		ActorID:        7,
		ActorRole:      domain.RoleProfessional,
		OccurredAt:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestRabbitMQNotifier_Notify(t *testing.T) {
	ch := &fakeChannel{}
	n := NewRabbitMQNotifierWithChannel(ch, "consultations", &recordingLogger{})

	require.NoError(t, n.Notify(context.Background(), testEvent()))

	require.Len(t, ch.messages, 1)
	m := ch.messages[0]
	assert.Equal(t, "consultations", m.exchange)
	assert.Equal(t, "reservation.approve", m.key)
	assert.Equal(t, "application/json", m.msg.ContentType)
	assert.Equal(t, amqp.Persistent, m.msg.DeliveryMode)
	assert.NotEmpty(t, m.msg.MessageId)

	var decoded domain.LifecycleEvent
	require.NoError(t, json.Unmarshal(m.msg.Body, &decoded))
	assert.Equal(t, testEvent(), decoded)
}

func TestRabbitMQNotifier_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	n := NewRabbitMQNotifierWithChannel(ch, "consultations", &recordingLogger{})

	err := n.Notify(context.Background(), testEvent())

	assert.ErrorIs(t, err, ErrPublish)
}

func TestRabbitMQNotifier_Close(t *testing.T) {
	ch := &fakeChannel{}
	n := NewRabbitMQNotifierWithChannel(ch, "consultations", &recordingLogger{})

	assert.NoError(t, n.Close())
	assert.True(t, ch.closed)
}

func TestRoutingKey(t *testing.T) {
	for _, action := range domain.Actions() {
		assert.Equal(t, "reservation."+string(action), RoutingKey(action))
	}
}

func TestLogNotifier(t *testing.T) {
	log := &recordingLogger{}

	require.NoError(t, NewLogNotifier(log).Notify(context.Background(), testEvent()))

	require.Len(t, log.lines, 1)
	assert.Contains(t, log.lines[0], "reservation id=42 approve")
}
