package router

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	handlershared "github.com/realty-ledger/internal/http/handlers/shared"
	"github.com/realty-ledger/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware Redis 频率限制中间件
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		count, ttlSeconds, err := runRateLimitScript(c, client, key, rule.WindowSeconds)
		if err != nil {
			handlershared.RespondAppError(c, response.NewAppError(response.CodeServiceUnavailable, "error.rate_limit_unavailable").WithCause(err))
			c.Abort()
			return
		}
		if count > int64(rule.MaxRequests) {
			waitSeconds := int(ttlSeconds)
			if waitSeconds < 1 {
				waitSeconds = rule.WindowSeconds
			}
			respondRateLimited(c, rule, waitSeconds)
			return
		}

		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByPathParam 使用路径参数作为限流 key
func KeyByPathParam(name string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		return strings.TrimSpace(c.Param(name))
	}
}

// LocalRateLimitMiddleware 单实例令牌桶限流，未启用 Redis 时使用
func LocalRateLimitMiddleware(rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	window := time.Duration(rule.WindowSeconds) * time.Second
	every := rate.Every(window / time.Duration(rule.MaxRequests))
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		mu.Lock()
		limiter, ok := limiters[key]
		if !ok {
			limiter = rate.NewLimiter(every, rule.MaxRequests)
			limiters[key] = limiter
		}
		mu.Unlock()

		reservation := limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			waitSeconds := int(math.Ceil(delay.Seconds()))
			if waitSeconds < 1 {
				waitSeconds = 1
			}
			respondRateLimited(c, rule, waitSeconds)
			return
		}
		c.Next()
	}
}

func respondRateLimited(c *gin.Context, rule RateLimitRule, waitSeconds int) {
	msgKey := strings.TrimSpace(rule.MessageKey)
	if msgKey == "" {
		msgKey = "error.rate_limited"
	}
	c.Header("Retry-After", strconv.Itoa(waitSeconds))
	handlershared.RespondAppError(c, response.NewAppError(response.CodeTooManyRequests, msgKey, waitSeconds).
		WithData(gin.H{"retry_after": waitSeconds}))
	c.Abort()
}

// runRateLimitScript 返回窗口内计数与剩余秒数
func runRateLimitScript(c *gin.Context, client *redis.Client, key string, windowSeconds int) (int64, int64, error) {
	result, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, windowSeconds).Result()
	if err != nil {
		return 0, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply: %v", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return 0, 0, fmt.Errorf("unexpected rate limit counter: %v", values[0])
	}
	ttl, _ := toInt64(values[1])
	return count, ttl, nil
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
