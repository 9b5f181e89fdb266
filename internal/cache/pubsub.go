package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/notify"

	"github.com/redis/go-redis/v9"
)

// ErrRedisDisabled Redis 未启用
var ErrRedisDisabled = errors.New("redis is disabled")

// RealtorNotificationChannel 经纪人通知频道名
func RealtorNotificationChannel(realtorID uint) string {
	return buildKey(fmt.Sprintf(constants.ChannelRealtorNotify, realtorID))
}

// PublishRealtorNotification 向经纪人频道广播通知，Redis 未启用时静默跳过
func PublishRealtorNotification(ctx context.Context, event notify.Event) error {
	if !Enabled() {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return redisClient.Publish(ctx, RealtorNotificationChannel(event.RealtorID), payload).Err()
}

// NotificationSubscription 经纪人通知订阅句柄，调用方负责 Close
type NotificationSubscription struct {
	pubsub    *redis.PubSub
	events    chan notify.Event
	closeOnce sync.Once
	done      chan struct{}
}

// SubscribeRealtorNotifications 订阅经纪人通知
// 返回前已确认订阅成功，之后发布的事件都会送达 Events()。
func SubscribeRealtorNotifications(ctx context.Context, realtorID uint) (*NotificationSubscription, error) {
	if !Enabled() {
		return nil, ErrRedisDisabled
	}
	pubsub := redisClient.Subscribe(ctx, RealtorNotificationChannel(realtorID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	sub := &NotificationSubscription{
		pubsub: pubsub,
		events: make(chan notify.Event, 16),
		done:   make(chan struct{}),
	}
	go sub.run(pubsub.Channel())
	return sub, nil
}

// Events 事件通道，订阅关闭后通道关闭
func (s *NotificationSubscription) Events() <-chan notify.Event {
	return s.events
}

// Close 取消订阅并释放连接，可重复调用
func (s *NotificationSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

func (s *NotificationSubscription) run(messages <-chan *redis.Message) {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event notify.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warnw("notification_subscription_decode_failed", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case s.events <- event:
			case <-s.done:
				return
			}
		}
	}
}
