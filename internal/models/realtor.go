package models

import (
	"time"

	"gorm.io/gorm"
)

// Realtor 经纪人档案（由外部资料模块维护，账本仅读取）
type Realtor struct {
	ID           uint                 `gorm:"primarykey" json:"id"`                                // 主键
	DisplayName  string               `gorm:"type:varchar(120);not null" json:"display_name"`      // 展示名称
	Email        string               `gorm:"type:varchar(255);uniqueIndex" json:"email"`          // 邮箱
	Phone        string               `gorm:"type:varchar(32)" json:"phone"`                       // 手机号
	IsActive     bool                 `gorm:"not null;default:true;index" json:"is_active"`        // 是否启用
	CreatedAt    time.Time            `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt    time.Time            `json:"updated_at"`                                          // 更新时间
	DeletedAt    gorm.DeletedAt       `gorm:"index" json:"-"`                                      // 软删除时间
	BankAccounts []RealtorBankAccount `gorm:"foreignKey:RealtorID" json:"bank_accounts,omitempty"` // 已登记银行账户
}

// TableName 指定表名
func (Realtor) TableName() string {
	return "realtors"
}

// RealtorBankAccount 经纪人登记的收款银行账户
type RealtorBankAccount struct {
	ID            uint      `gorm:"primarykey" json:"id"`                            // 主键
	RealtorID     uint      `gorm:"not null;index" json:"realtor_id"`                // 经纪人ID
	BankName      string    `gorm:"type:varchar(120);not null" json:"bank_name"`     // 银行名称
	AccountName   string    `gorm:"type:varchar(120);not null" json:"account_name"`  // 户名
	AccountNumber string    `gorm:"type:varchar(64);not null" json:"account_number"` // 账号
	RoutingCode   string    `gorm:"type:varchar(64)" json:"routing_code"`            // 联行号 / SWIFT
	IsDefault     bool      `gorm:"not null;default:false;index" json:"is_default"`  // 是否默认账户
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (RealtorBankAccount) TableName() string {
	return "realtor_bank_accounts"
}

// ToBankDetails 生成提现快照
func (a RealtorBankAccount) ToBankDetails() BankDetails {
	return BankDetails{
		BankName:      a.BankName,
		AccountName:   a.AccountName,
		AccountNumber: a.AccountNumber,
		RoutingCode:   a.RoutingCode,
	}
}
