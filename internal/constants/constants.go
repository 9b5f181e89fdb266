package constants

// 佣金状态常量
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
	CommissionStatusPaid     = "paid"
	CommissionStatusRejected = "rejected"
)

// 提现（Payout）状态常量
const (
	PayoutStatusPending  = "pending"
	PayoutStatusApproved = "approved"
	PayoutStatusPaid     = "paid"
	PayoutStatusRejected = "rejected"
)

// 收据状态常量
const (
	ReceiptStatusPending  = "pending"
	ReceiptStatusApproved = "approved"
	ReceiptStatusRejected = "rejected"
)

// 账本流水类型常量
const (
	TransactionKindCommission = "commission"
	TransactionKindPayout     = "payout"
)

// 账本流水方向常量
const (
	TransactionDirectionCredit = "credit"
	TransactionDirectionDebit  = "debit"
)

// 通知类型常量
const (
	NotificationKindWithdrawalRequested = "withdrawal_requested"
	NotificationKindWithdrawalApproved  = "withdrawal_approved"
	NotificationKindWithdrawalRejected  = "withdrawal_rejected"
)

// 通知标题常量
const (
	NotificationTitleWithdrawalRequested = "Withdrawal Requested"
	NotificationTitleWithdrawalApproved  = "Withdrawal Approved"
	NotificationTitleWithdrawalRejected  = "Withdrawal Rejected"
)

// 队列常量
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskNotificationDeliver = "notification:deliver"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "rl"
)

// 缓存与锁 key 片段
const (
	LockKeyRealtorLedger      = "lock:realtor-ledger"
	ChannelRealtorNotify      = "realtor:%d:notifications"
	CacheKeyGenerationPrefix  = "cachegen:"
	CacheScopeReport          = "report"
	CacheKeyReportPrefix      = "report:"
	CacheKeyReportMonthly     = "monthly"
	CacheKeyReportTopRealtors = "top-realtors"
	CacheKeyReportMetrics     = "metrics"
)

// 限流前缀
const (
	RateLimitPrefixPayoutRequest = "rl:payout-request"
)
