package models

import "time"

// Notification 站内通知记录
type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                      // 主键
	RealtorID uint      `gorm:"not null;index:idx_notification_realtor_read" json:"realtor_id"`            // 接收经纪人
	Kind      string    `gorm:"type:varchar(64);not null;index" json:"kind"`                               // 通知类型
	Title     string    `gorm:"type:varchar(120);not null" json:"title"`                                   // 标题
	Message   string    `gorm:"type:text" json:"message"`                                                  // 内容
	Metadata  JSON      `gorm:"type:json" json:"metadata"`                                                 // 扩展数据
	IsRead    bool      `gorm:"not null;default:false;index:idx_notification_realtor_read" json:"is_read"` // 是否已读
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                   // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
