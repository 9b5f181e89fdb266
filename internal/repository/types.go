package repository

import "time"

// PayoutListFilter 查询提现列表的过滤条件
type PayoutListFilter struct {
	Page        int
	PageSize    int
	RealtorID   uint
	Status      string
	RequestNo   string
	Keyword     string // 模糊匹配单号、户名、银行
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	RealtorID  uint
	UnreadOnly bool
	RequestNo  string // 按扩展数据中的提现单号过滤
}
