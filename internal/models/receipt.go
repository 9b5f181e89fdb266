package models

import "time"

// Receipt 成交收据（由外部收据模块维护）
type Receipt struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                    // 主键
	RealtorID     uint      `gorm:"not null;index" json:"realtor_id"`                        // 经纪人ID
	PropertyTitle string    `gorm:"type:varchar(255);not null" json:"property_title"`        // 房源标题
	SalePrice     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"sale_price"` // 成交价
	Status        string    `gorm:"type:varchar(20);not null;index" json:"status"`           // 收据状态
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (Receipt) TableName() string {
	return "receipts"
}
