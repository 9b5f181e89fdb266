package notify

import (
	"context"

	"github.com/realty-ledger/internal/queue"

	"github.com/hibiken/asynq"
)

// QueueEmitter 通过 asynq 队列投递通知，由 worker 负责落库与推送
type QueueEmitter struct {
	client   *queue.Client
	maxRetry int
}

// NewQueueEmitter 创建队列投递器
func NewQueueEmitter(client *queue.Client, maxRetry int) *QueueEmitter {
	if maxRetry < 0 {
		maxRetry = 0
	}
	return &QueueEmitter{client: client, maxRetry: maxRetry}
}

// Emit 入队通知投递任务
func (e *QueueEmitter) Emit(ctx context.Context, event Event) error {
	if e == nil || !e.client.Enabled() {
		return queue.ErrQueueDisabled
	}
	return e.client.EnqueueNotificationDelivery(ctx, queue.NotificationDeliveryPayload{
		RealtorID:  event.RealtorID,
		Kind:       event.Kind,
		Title:      event.Title,
		Message:    event.Message,
		Metadata:   event.Metadata,
		OccurredAt: event.OccurredAt,
	}, asynq.MaxRetry(e.maxRetry))
}

// EventFromPayload 将队列载荷还原为通知事件
func EventFromPayload(payload queue.NotificationDeliveryPayload) Event {
	return Event{
		RealtorID:  payload.RealtorID,
		Kind:       payload.Kind,
		Title:      payload.Title,
		Message:    payload.Message,
		Metadata:   payload.Metadata,
		OccurredAt: payload.OccurredAt,
	}
}
