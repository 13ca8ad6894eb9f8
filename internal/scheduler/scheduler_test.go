package scheduler

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-ticketing/internal/service"
)

type countingSweeper struct {
	runs atomic.Int32
	err  error
}

func (s *countingSweeper) RunOnce(context.Context) (service.SweepResult, error) {
	s.runs.Add(1)
	return service.SweepResult{}, s.err
}

func TestStartSweeper_RunsPeriodically(t *testing.T) {
	sw := &countingSweeper{err: errors.New("boom")}
	s, err := StartSweeper(context.Background(), sw, 20*time.Millisecond, clockwork.NewRealClock(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	assert.Eventually(t, func() bool { return sw.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.Len(t, s.Jobs(), 1)
	assert.Equal(t, SweepJobName, s.Jobs()[0].Name())
}

func TestStartSweeper_RejectsBadInterval(t *testing.T) {
	_, err := StartSweeper(context.Background(), &countingSweeper{}, 0, clockwork.NewRealClock(), nil)
	assert.Error(t, err)
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	key := "test-" + t.Name()
	l := NewRedisLocker(rdb, time.Minute)
	lock, err := l.Lock(ctx, key)
	require.NoError(t, err)

	_, err = l.Lock(ctx, key)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, lock.Unlock(ctx))
	again, err := l.Lock(ctx, key)
	require.NoError(t, err)
	require.NoError(t, again.Unlock(ctx))
}
