package processed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "consultation:webhook:processed"

var (
	// ErrLookup возвращается при ошибке чтения из Redis
	ErrLookup = errors.New("processed.tracker: lookup failed")

	// ErrMark возвращается при ошибке записи в Redis
	ErrMark = errors.New("processed.tracker: mark failed")
)

// Tracker запоминает id обработанных webhook событий провайдеров платежей
// Ключи живут ttl, повторная доставка события в этот период пропускается
type Tracker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewTracker создает трекер
func NewTracker(client redis.UniversalClient, ttl time.Duration) *Tracker {
	return &Tracker{client: client, ttl: ttl}
}

// AlreadyProcessed проверяет, было ли событие уже обработано
func (t *Tracker) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	n, err := t.client.Exists(ctx, key(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	return n > 0, nil
}

// MarkProcessed отмечает событие обработанным. Возвращает false, если отметка уже была.
func (t *Tracker) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	ok, err := t.client.SetNX(ctx, key(provider, eventID), time.Now().UTC().Format(time.RFC3339), t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMark, err)
	}
	return ok, nil
}

func key(provider, eventID string) string {
	return keyPrefix + ":" + provider + ":" + eventID
}
