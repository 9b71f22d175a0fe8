package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("calendar date lock not acquired")

// Locker serializes booking attempts per calendar date. The booking
// validator re-reads authoritative state inside the critical section, so
// two concurrent bookings into overlapping intervals on the same date
// cannot both pass.
type Locker interface {
	WithDateLock(ctx context.Context, date string, fn func(ctx context.Context) error) error
}

type redisDateLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDateLocker creates a locker that uses a per-date Redis key.
func NewRedisDateLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisDateLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisDateLocker) WithDateLock(ctx context.Context, date string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:calendar:%s", date)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire date lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisDateLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release date lock: %w", err)
	}
	return nil
}
