package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrLockNotAcquired 在限定时间内未能获取锁
var ErrLockNotAcquired = errors.New("lock not acquired")

// ErrEmptyLockKey 锁 key 为空
var ErrEmptyLockKey = errors.New("lock key is empty")

// Locker 按 key 互斥执行
// fn 返回的错误原样透传，便于调用方 errors.Is / errors.As 判断。
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// LocalLocker 进程内按 key 互斥（单实例部署或未启用 Redis 时使用）
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

type localEntry struct {
	slot chan struct{}
	refs int
}

// NewLocalLocker 创建进程内锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*localEntry)}
}

// WithLock 获取 key 对应的锁后执行 fn，等待期间响应 ctx 取消
func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyLockKey
	}
	if fn == nil {
		return nil
	}
	entry := l.acquireEntry(key)
	defer l.releaseEntry(key, entry)

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		return errors.Join(ErrLockNotAcquired, ctx.Err())
	}
	defer func() { <-entry.slot }()

	return fn(ctx)
}

func (l *LocalLocker) acquireEntry(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{slot: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *LocalLocker) releaseEntry(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs <= 0 {
		delete(l.entries, key)
	}
}

// size 当前持有的 key 数量
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
