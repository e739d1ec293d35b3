package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l, err := NewRedisLocker(rdb, ttl)
	require.NoError(t, err)
	l.retry = 5 * time.Millisecond
	return l, mr, rdb
}

func TestRedisLockerBlocksSameKeyUntilRelease(t *testing.T) {
	t.Parallel()

	l, mr, _ := newTestRedisLocker(t, time.Minute)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "session:a")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKeyPrefix+"session:a"))
	assert.Equal(t, time.Minute, mr.TTL(lockKeyPrefix+"session:a"))

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, "session:a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(ctx, "session:b")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists(lockKeyPrefix+"session:a"))

	again, err := l.Lock(ctx, "session:a")
	require.NoError(t, err)
	again()
}

func TestRedisLockerSerializesAcrossInstances(t *testing.T) {
	t.Parallel()

	first, _, rdb := newTestRedisLocker(t, time.Minute)
	second, err := NewRedisLocker(rdb, time.Minute)
	require.NoError(t, err)
	second.retry = 5 * time.Millisecond
	lockers := []*RedisLocker{first, second}

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(l *RedisLocker) {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "session:shared")
			if err != nil {
				overlap.Store(true)
				return
			}
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}(lockers[i%2])
	}
	wg.Wait()
	assert.False(t, overlap.Load(), "two holders shared the same lock")
}

func TestRedisLockerExpiredHolderCannotReleaseNewHolder(t *testing.T) {
	t.Parallel()

	l, mr, _ := newTestRedisLocker(t, time.Second)
	ctx := context.Background()
	key := lockKeyPrefix + "voice:user-1"

	stale, err := l.Lock(ctx, "voice:user-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists(key))

	fresh, err := l.Lock(ctx, "voice:user-1")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists(key), "stale unlock removed the new holder's lock")

	fresh()
	fresh()
	assert.False(t, mr.Exists(key))
}

func TestRedisLockerDefaultTTL(t *testing.T) {
	t.Parallel()

	l, mr, _ := newTestRedisLocker(t, 0)
	unlock, err := l.Lock(context.Background(), "session:ttl")
	require.NoError(t, err)
	defer unlock()
	assert.Equal(t, defaultLockTTL, mr.TTL(lockKeyPrefix+"session:ttl"))
}

func TestRedisLockerSurfacesConnectionErrors(t *testing.T) {
	t.Parallel()

	l, mr, _ := newTestRedisLocker(t, time.Minute)
	mr.Close()

	_, err := l.Lock(context.Background(), "session:down")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire lock session:down")
}
