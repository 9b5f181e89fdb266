package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/realty-ledger/internal/config"
	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const pingTimeout = 3 * time.Second

var (
	redisClient  *redis.Client
	redisPrefix  string
	redisEnabled bool
	loadGroup    singleflight.Group
)

// InitRedis 连接 Redis 并探活，未启用时缓存保持关闭
func InitRedis(ctx context.Context, cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		SetClient(nil, "")
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	SetClient(client, cfg.Prefix)
	return nil
}

// SetClient 直接注入 Redis 客户端，client 为 nil 时关闭缓存
func SetClient(client *redis.Client, prefix string) {
	redisPrefix = strings.TrimSpace(prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient = client
	redisEnabled = client != nil
}

// Close 关闭 Redis 连接
func Close() error {
	if redisClient == nil {
		return nil
	}
	err := redisClient.Close()
	redisClient = nil
	redisEnabled = false
	return err
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return redisEnabled && redisClient != nil
}

// Client 获取 Redis 客户端
func Client() *redis.Client {
	if !Enabled() {
		return nil
	}
	return redisClient
}

// Prefix 当前 key 前缀
func Prefix() string {
	if redisPrefix == "" {
		return constants.RedisPrefixDefault
	}
	return redisPrefix
}

// GetJSON 获取 JSON 缓存
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	val, err := redisClient.Get(ctx, buildKey(key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return redisClient.Set(ctx, buildKey(key), payload, ttl).Err()
}

// Remember 读取缓存，未命中时调用 load 并回写
// 同一 key 的并发未命中只触发一次 load；缓存关闭或 ttl<=0 时直接调用 load。
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if !Enabled() || ttl <= 0 {
		return load(ctx)
	}
	return remember(ctx, key, ttl, load, nil)
}

// RememberScoped 在 scope 的当前分代下读取缓存
// key 带分代号，BumpGeneration 之后旧分代的缓存不再可见；
// 加载期间分代号发生变化时不回写，避免把变更前读到的数据写入缓存。
func RememberScoped[T any](ctx context.Context, scope, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if !Enabled() || ttl <= 0 {
		return load(ctx)
	}
	gen, err := Generation(ctx, scope)
	if err != nil {
		logger.Debugw("cache_generation_read_failed", "scope", scope, "error", err)
		return load(ctx)
	}
	scopedKey := fmt.Sprintf("%s:g%d:%s", normalizeScope(scope), gen, key)
	return remember(ctx, scopedKey, ttl, load, func() bool {
		current, err := Generation(ctx, scope)
		return err == nil && current == gen
	})
}

func remember[T any](ctx context.Context, key string, ttl time.Duration, load func(context.Context) (T, error), stillCurrent func() bool) (T, error) {
	var cached T
	if hit, err := GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		logger.Debugw("cache_get_failed", "key", key, "error", err)
	}

	value, err, _ := loadGroup.Do(buildKey(key), func() (interface{}, error) {
		loaded, err := load(ctx)
		if err != nil {
			return loaded, err
		}
		if stillCurrent != nil && !stillCurrent() {
			logger.Debugw("cache_set_skipped_stale", "key", key)
			return loaded, nil
		}
		if err := SetJSON(ctx, key, loaded, ttl); err != nil {
			logger.Debugw("cache_set_failed", "key", key, "error", err)
		}
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// Generation 读取 scope 的缓存分代号，未设置时为 0
func Generation(ctx context.Context, scope string) (int64, error) {
	if !Enabled() {
		return 0, nil
	}
	gen, err := redisClient.Get(ctx, generationKey(scope)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// BumpGeneration 递增 scope 的分代号，使该 scope 下已有缓存全部失效
func BumpGeneration(ctx context.Context, scope string) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Incr(ctx, generationKey(scope)).Err()
}

// generationKey 分代号不放在 scope 前缀下，按前缀清理缓存时不会被删掉
func generationKey(scope string) string {
	return buildKey(constants.CacheKeyGenerationPrefix + normalizeScope(scope))
}

func normalizeScope(scope string) string {
	return strings.Trim(strings.TrimSpace(scope), ":")
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Del(ctx, buildKey(key)).Err()
}

// DelByPrefix 按前缀批量删除缓存（SCAN 遍历，避免阻塞）
func DelByPrefix(ctx context.Context, prefix string) error {
	if !Enabled() {
		return nil
	}
	pattern := buildKey(prefix) + "*"
	iter := redisClient.Scan(ctx, 0, pattern, 200).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 200 {
			if err := redisClient.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return redisClient.Del(ctx, keys...).Err()
	}
	return nil
}

func buildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return redisPrefix
	}
	return fmt.Sprintf("%s:%s", redisPrefix, trimmed)
}
