package models

import "time"

// Commission 经纪人佣金记录（由收据审核流程创建）
type Commission struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                        // 主键
	RealtorID uint      `gorm:"not null;index:idx_commission_realtor_status" json:"realtor_id"`              // 经纪人ID
	ReceiptID *uint     `gorm:"index" json:"receipt_id,omitempty"`                                           // 关联收据
	Amount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                         // 佣金金额
	Status    string    `gorm:"type:varchar(20);not null;index:idx_commission_realtor_status" json:"status"` // 佣金状态
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                                     // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                                                  // 更新时间
}

// TableName 指定表名
func (Commission) TableName() string {
	return "commissions"
}
