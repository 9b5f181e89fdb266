package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "realtor:1", func(ctx context.Context) error {
				current := atomic.AddInt32(&active, 1)
				for {
					prev := atomic.LoadInt32(&maxActive)
					if current <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, current) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, locker.size())
}

func TestLocalLockerDifferentKeysRunConcurrently(t *testing.T) {
	locker := NewLocalLocker()
	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = locker.WithLock(context.Background(), "realtor:1", func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan error, 1)
	go func() {
		done <- locker.WithLock(context.Background(), "realtor:2", func(ctx context.Context) error {
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
	close(release)
}

func TestLocalLockerHonoursContextWhileWaiting(t *testing.T) {
	locker := NewLocalLocker()
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = locker.WithLock(context.Background(), "realtor:1", func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	called := false
	err := locker.WithLock(ctx, "realtor:1", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
	close(release)
}

func TestLocalLockerPassesThroughCallbackError(t *testing.T) {
	locker := NewLocalLocker()
	sentinel := errors.New("boom")
	err := locker.WithLock(context.Background(), "k", func(ctx context.Context) error {
		return sentinel
	})
	assert.Same(t, sentinel, err)

	assert.ErrorIs(t, locker.WithLock(context.Background(), "  ", func(ctx context.Context) error { return nil }), ErrEmptyLockKey)
}

func newTestRedisLocker(t *testing.T, opts RedisOptions) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	locker, err := NewRedisLocker(client, opts)
	require.NoError(t, err)
	return locker, mr
}

func TestRedisLockerSerializesSameKey(t *testing.T) {
	locker, _ := newTestRedisLocker(t, RedisOptions{Prefix: "rl", Tries: 200, RetryDelay: 5 * time.Millisecond})

	var active int32
	var violations int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "lock:realtor-ledger:1", func(ctx context.Context) error {
				if atomic.AddInt32(&active, 1) > 1 {
					atomic.AddInt32(&violations, 1)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), violations)
}

func TestRedisLockerReleasesKeyAfterCallback(t *testing.T) {
	locker, mr := newTestRedisLocker(t, RedisOptions{Prefix: "rl"})

	err := locker.WithLock(context.Background(), "lock:realtor-ledger:7", func(ctx context.Context) error {
		assert.True(t, mr.Exists("rl:lock:realtor-ledger:7"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("rl:lock:realtor-ledger:7"))
}

func TestRedisLockerFailsWhenHeldElsewhere(t *testing.T) {
	locker, mr := newTestRedisLocker(t, RedisOptions{Prefix: "rl", Tries: 2, RetryDelay: time.Millisecond})
	require.NoError(t, mr.Set("rl:lock:realtor-ledger:9", "other-owner"))

	called := false
	err := locker.WithLock(context.Background(), "lock:realtor-ledger:9", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, called)
}
