package models

import "time"

// BankDetails 提现收款信息快照
type BankDetails struct {
	BankName      string `gorm:"type:varchar(120)" json:"bank_name" validate:"required,max=120"`
	AccountName   string `gorm:"type:varchar(120)" json:"account_name" validate:"required,max=120"`
	AccountNumber string `gorm:"type:varchar(64)" json:"account_number" validate:"required,min=4,max=64,alphanum"`
	RoutingCode   string `gorm:"type:varchar(64)" json:"routing_code,omitempty" validate:"omitempty,max=64,alphanum"`
}

// Payout 经纪人提现申请
type Payout struct {
	ID             uint        `gorm:"primarykey" json:"-"`                                                                           // 内部主键
	RequestNo      string      `gorm:"type:varchar(64);not null;uniqueIndex" json:"request_no"`                                       // 对外提现单号
	RealtorID      uint        `gorm:"not null;index:idx_payout_realtor_status;uniqueIndex:idx_payout_idempotency" json:"realtor_id"` // 经纪人ID
	Amount         Money       `gorm:"type:decimal(20,2);not null" json:"amount"`                                                     // 提现金额
	Status         string      `gorm:"type:varchar(20);not null;index:idx_payout_realtor_status" json:"status"`                       // 提现状态
	Bank           BankDetails `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`                                             // 收款信息快照
	IdempotencyKey *string     `gorm:"type:varchar(128);uniqueIndex:idx_payout_idempotency" json:"-"`                                 // 幂等键
	RejectReason   string      `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`                                              // 驳回原因
	ReviewedAt     *time.Time  `json:"reviewed_at,omitempty"`                                                                         // 审核时间
	PaidAt         *time.Time  `gorm:"index" json:"paid_at,omitempty"`                                                                // 打款时间
	CreatedAt      time.Time   `gorm:"index" json:"created_at"`                                                                       // 创建时间
	UpdatedAt      time.Time   `json:"updated_at"`                                                                                    // 更新时间
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}

// MaskedAccountNumber 返回脱敏账号
func (b BankDetails) MaskedAccountNumber() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	masked := make([]byte, n)
	for i := 0; i < n-4; i++ {
		masked[i] = '*'
	}
	copy(masked[n-4:], b.AccountNumber[n-4:])
	return string(masked)
}
