package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/realty-ledger/internal/config"
	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 提现相关通知优先处理
	CriticalQueue = constants.QueueCritical

	maxRetryDelay = 10 * time.Minute
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// Client 队列客户端封装
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端，未启用时返回空壳
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueNotificationDelivery 推送通知投递任务
// 同一提现单的同类通知在队列中只保留一份。
func (c *Client) EnqueueNotificationDelivery(ctx context.Context, payload NotificationDeliveryPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	task, err := NewNotificationDeliveryTask(payload)
	if err != nil {
		return err
	}
	options := []asynq.Option{asynq.Queue(QueueForKind(payload.Kind))}
	if taskID := payload.TaskID(); taskID != "" {
		options = append(options, asynq.TaskID(taskID))
	}
	options = append(options, opts...)
	_, err = c.client.EnqueueContext(ctx, task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debugw("queue_notification_duplicate", "task_id", payload.TaskID())
		return nil
	}
	return err
}

// QueueForKind 按通知类型选择队列
func QueueForKind(kind string) string {
	if strings.HasPrefix(kind, "withdrawal_") {
		return CriticalQueue
	}
	return DefaultQueue
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 2, DefaultQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency:    concurrency,
		Queues:         queues,
		RetryDelayFunc: retryDelay,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnw("queue_task_failed",
				"type", task.Type(),
				"retried", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	}
}

// retryDelay 指数退避，封顶 10 分钟
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > 10 {
		return maxRetryDelay
	}
	delay := time.Duration(1<<uint(n)) * time.Second
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
