package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another replica holds the job lock.
var ErrLockHeld = errors.New("scheduler: lock held elsewhere")

// unlockScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by another replica is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements gocron.Locker with SET NX PX.
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisLocker returns a locker whose locks expire after ttl even if the
// holder dies without unlocking.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, prefix: "lock:job:"}
}

// Lock takes the lock for key or returns ErrLockHeld.
func (l *RedisLocker) Lock(ctx context.Context, key string) (gocron.Lock, error) {
	token := uuid.NewString()
	k := l.prefix + key
	ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &redisLock{rdb: l.rdb, key: k, token: token}, nil
}

type redisLock struct {
	rdb   *redis.Client
	key   string
	token string
}

func (l *redisLock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
}
