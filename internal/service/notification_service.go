package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/realty-ledger/internal/cache"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/notify"
	"github.com/realty-ledger/internal/queue"
	"github.com/realty-ledger/internal/repository"
)

// ErrNotificationEventInvalid 通知事件缺少必要字段
var ErrNotificationEventInvalid = errors.New("notification event invalid")

// NotificationService 通知落库与实时推送
type NotificationService struct {
	repo    repository.NotificationRepository
	publish func(ctx context.Context, event notify.Event) error
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		repo:    repo,
		publish: cache.PublishRealtorNotification,
	}
}

// Emit 写入站内通知并向经纪人频道广播
// 广播失败只记录日志，落库成功即视为送达。
func (s *NotificationService) Emit(ctx context.Context, event notify.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	if event.RealtorID == 0 || strings.TrimSpace(event.Kind) == "" {
		return ErrNotificationEventInvalid
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	row := &models.Notification{
		RealtorID: event.RealtorID,
		Kind:      strings.TrimSpace(event.Kind),
		Title:     strings.TrimSpace(event.Title),
		Message:   event.Message,
		Metadata:  models.JSON(event.Metadata),
		CreatedAt: event.OccurredAt,
	}
	if row.Metadata == nil {
		row.Metadata = models.JSON{}
	}
	if err := s.repo.WithContext(ctx).Create(row); err != nil {
		return err
	}
	if s.publish != nil {
		if err := s.publish(ctx, event); err != nil {
			logger.Warnw("notification_publish_failed",
				"realtor_id", event.RealtorID,
				"kind", event.Kind,
				"error", err,
			)
		}
	}
	return nil
}

// Deliver 处理队列中的通知投递任务
func (s *NotificationService) Deliver(ctx context.Context, payload queue.NotificationDeliveryPayload) error {
	return s.Emit(ctx, notify.EventFromPayload(payload))
}

// ListForRealtor 分页查询经纪人通知
func (s *NotificationService) ListForRealtor(ctx context.Context, filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	if filter.RealtorID == 0 {
		return nil, 0, ErrRealtorInvalid
	}
	rows, total, err := s.repo.WithContext(ctx).List(filter)
	if err != nil {
		return nil, 0, wrapStoreError("list notifications", err)
	}
	return rows, total, nil
}

// MarkRead 标记通知已读
func (s *NotificationService) MarkRead(ctx context.Context, realtorID, notificationID uint) error {
	if realtorID == 0 {
		return ErrRealtorInvalid
	}
	ok, err := s.repo.WithContext(ctx).MarkRead(notificationID, realtorID)
	if err != nil {
		return wrapStoreError("mark notification read", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// CountUnread 统计未读通知
func (s *NotificationService) CountUnread(ctx context.Context, realtorID uint) (int64, error) {
	total, err := s.repo.WithContext(ctx).CountUnread(realtorID)
	if err != nil {
		return 0, wrapStoreError("count unread notifications", err)
	}
	return total, nil
}
