package i18n

var catalogs = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":               "请求参数错误",
		"error.realtor_invalid":           "经纪人编号无效",
		"error.payout_amount_invalid":     "提现金额必须大于 0",
		"error.commission_amount_invalid": "佣金金额不能为负数",
		"error.insufficient_balance":      "可用余额不足，当前可提现 %s",
		"error.bank_details_invalid":      "银行账户信息不完整",
		"error.status_invalid":            "状态值无效",
		"error.transition_invalid":        "当前状态不允许变更为 %s",
		"error.payout_not_found":          "提现申请不存在",
		"error.commission_not_found":      "佣金记录不存在",
		"error.notification_not_found":    "通知不存在",
		"error.conflict":                  "操作冲突，请稍后重试",
		"error.idempotency_key_reused":    "幂等键已用于其他提现请求",
		"error.store_unavailable":         "服务暂时不可用，请稍后重试",
		"error.year_invalid":              "年份无效",
		"error.limit_invalid":             "数量参数无效",
		"error.internal":                  "服务器内部错误",
		"error.rate_limited":              "请求过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":    "限流服务不可用",
	},
	LocaleEnUS: {
		"error.bad_request":               "Invalid request parameters",
		"error.realtor_invalid":           "Invalid realtor",
		"error.payout_amount_invalid":     "Payout amount must be greater than 0",
		"error.commission_amount_invalid": "Commission amount must not be negative",
		"error.insufficient_balance":      "Insufficient balance, available: %s",
		"error.bank_details_invalid":      "Bank details are incomplete",
		"error.status_invalid":            "Invalid status",
		"error.transition_invalid":        "Cannot change status to %s",
		"error.payout_not_found":          "Payout request not found",
		"error.commission_not_found":      "Commission not found",
		"error.notification_not_found":    "Notification not found",
		"error.conflict":                  "Conflicting update, please retry",
		"error.idempotency_key_reused":    "Idempotency key was already used for a different withdrawal request",
		"error.store_unavailable":         "Service temporarily unavailable, please retry",
		"error.year_invalid":              "Invalid year",
		"error.limit_invalid":             "Invalid limit",
		"error.internal":                  "Internal server error",
		"error.rate_limited":              "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":    "Rate limiter unavailable",
	},
}
