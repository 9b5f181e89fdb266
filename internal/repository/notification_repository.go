package repository

import (
	"context"
	"strings"

	"github.com/realty-ledger/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	WithContext(ctx context.Context) NotificationRepository
	Create(notification *models.Notification) error
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	MarkRead(id, realtorID uint) (bool, error)
	CountUnread(realtorID uint) (int64, error)
}

// GormNotificationRepository GORM 通知仓储
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// WithContext 绑定上下文
func (r *GormNotificationRepository) WithContext(ctx context.Context) NotificationRepository {
	if ctx == nil {
		return r
	}
	return &GormNotificationRepository{db: r.db.WithContext(ctx)}
}

// Create 写入通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// List 分页查询通知
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("realtor_id = ?", filter.RealtorID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if requestNo := strings.TrimSpace(filter.RequestNo); requestNo != "" {
		query = query.Where(jsonTextExpr(r.db, "metadata", "request_no")+" = ?", requestNo)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)
	var rows []models.Notification
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkRead 标记通知已读，仅允许接收人本人操作
func (r *GormNotificationRepository) MarkRead(id, realtorID uint) (bool, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND realtor_id = ?", id, realtorID).
		Update("is_read", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountUnread 统计未读数量
func (r *GormNotificationRepository) CountUnread(realtorID uint) (int64, error) {
	var total int64
	if err := r.db.Model(&models.Notification{}).
		Where("realtor_id = ? AND is_read = ?", realtorID, false).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
