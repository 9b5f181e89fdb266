package worker

import (
	"context"

	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/provider"
	"github.com/realty-ledger/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Named("worker").Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDeliver, c.handleNotificationDeliver)
}

func (c *Consumer) handleNotificationDeliver(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Named("worker").Debugw("worker_notification_deliver_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseNotificationDeliveryPayload(task.Payload())
	if err != nil {
		logger.Named("worker").Warnw("worker_notification_deliver_unmarshal_failed", "error", err)
		// 载荷损坏重试也无法恢复
		return asynq.SkipRetry
	}
	if payload.RealtorID == 0 || payload.Kind == "" {
		logger.Named("worker").Debugw("worker_notification_deliver_skip_invalid_payload",
			"realtor_id", payload.RealtorID,
			"kind", payload.Kind,
		)
		return nil
	}
	if c.Container == nil || c.NotificationService == nil {
		logger.Named("worker").Warnw("worker_notification_deliver_skip_service_nil", "realtor_id", payload.RealtorID)
		return nil
	}
	if err := c.NotificationService.Deliver(ctx, payload); err != nil {
		logger.Named("worker").Warnw("worker_notification_deliver_failed",
			"realtor_id", payload.RealtorID,
			"kind", payload.Kind,
			"error", err,
		)
		return err
	}
	return nil
}
