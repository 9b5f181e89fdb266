package models

import "time"

// RealtorLedger 经纪人账本版本行，所有影响余额的写操作都会锁定并递增版本
type RealtorLedger struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	RealtorID uint      `gorm:"not null;uniqueIndex" json:"realtor_id"`
	Version   uint64    `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (RealtorLedger) TableName() string {
	return "realtor_ledgers"
}
