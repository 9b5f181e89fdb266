package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/realty-ledger/internal/logger"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockExpiry     = 10 * time.Second
	defaultLockTries      = 32
	defaultLockRetryDelay = 50 * time.Millisecond
)

// RedisOptions 分布式锁参数
type RedisOptions struct {
	Prefix     string
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// RedisLocker 基于 redsync 的分布式锁，多实例部署时保证同一经纪人串行
type RedisLocker struct {
	rs   *redsync.Redsync
	opts RedisOptions
}

// NewRedisLocker 创建分布式锁
func NewRedisLocker(client *redis.Client, opts RedisOptions) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	if opts.Expiry <= 0 {
		opts.Expiry = defaultLockExpiry
	}
	if opts.Tries <= 0 {
		opts.Tries = defaultLockTries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultLockRetryDelay
	}
	opts.Prefix = strings.TrimSpace(opts.Prefix)
	pool := goredis.NewPool(client)
	return &RedisLocker{
		rs:   redsync.New(pool),
		opts: opts,
	}, nil
}

// WithLock 获取分布式锁后执行 fn
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyLockKey
	}
	if fn == nil {
		return nil
	}
	fullKey := key
	if l.opts.Prefix != "" {
		fullKey = fmt.Sprintf("%s:%s", l.opts.Prefix, key)
	}
	mutex := l.rs.NewMutex(
		fullKey,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		logger.Warnw("redis_lock_acquire_failed", "lock_key", fullKey, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, fullKey, err)
	}
	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			logger.Warnw("redis_lock_release_failed", "lock_key", fullKey, "unlock_ok", ok, "error", err)
		}
	}()
	return fn(ctx)
}
