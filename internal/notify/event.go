package notify

import (
	"context"
	"time"
)

// Event 账本通知事件
type Event struct {
	RealtorID  uint                   `json:"realtor_id"`
	Kind       string                 `json:"kind"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Emitter 负责通知的持久化或投递
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// EmitterFunc 函数适配 Emitter
type EmitterFunc func(ctx context.Context, event Event) error

// Emit 调用函数本身
func (f EmitterFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher 账本服务使用的发布入口，调用方不会被阻塞
type Publisher interface {
	Dispatch(event Event)
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

// Dispatch 不做任何事
func (NopPublisher) Dispatch(Event) {}
