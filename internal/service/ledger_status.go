package service

import (
	"strings"

	"github.com/realty-ledger/internal/constants"
)

const (
	entityPayout     = "payout"
	entityCommission = "commission"
)

// normalizeStatus 统一状态大小写与空白
func normalizeStatus(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsPayoutStatus 判断是否为合法提现状态
func IsPayoutStatus(status string) bool {
	switch status {
	case constants.PayoutStatusPending,
		constants.PayoutStatusApproved,
		constants.PayoutStatusPaid,
		constants.PayoutStatusRejected:
		return true
	default:
		return false
	}
}

// IsCommissionStatus 判断是否为合法佣金状态
func IsCommissionStatus(status string) bool {
	switch status {
	case constants.CommissionStatusPending,
		constants.CommissionStatusApproved,
		constants.CommissionStatusPaid,
		constants.CommissionStatusRejected:
		return true
	default:
		return false
	}
}

// CanTransitionPayout 提现状态机：pending→approved/rejected，approved→paid/rejected
func CanTransitionPayout(from, to string) bool {
	switch from {
	case constants.PayoutStatusPending:
		return to == constants.PayoutStatusApproved || to == constants.PayoutStatusRejected
	case constants.PayoutStatusApproved:
		return to == constants.PayoutStatusPaid || to == constants.PayoutStatusRejected
	default:
		return false
	}
}

// CanTransitionCommission 佣金状态机：pending→approved/rejected，approved→paid
func CanTransitionCommission(from, to string) bool {
	switch from {
	case constants.CommissionStatusPending:
		return to == constants.CommissionStatusApproved || to == constants.CommissionStatusRejected
	case constants.CommissionStatusApproved:
		return to == constants.CommissionStatusPaid
	default:
		return false
	}
}

// IsTerminalPayoutStatus 终态不再允许迁移
func IsTerminalPayoutStatus(status string) bool {
	return status == constants.PayoutStatusPaid || status == constants.PayoutStatusRejected
}

// ParseStatusList 解析逗号分隔的状态列表，忽略空值与重复
func ParseStatusList(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(parts))
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		status := normalizeStatus(part)
		if status == "" {
			continue
		}
		if _, ok := seen[status]; ok {
			continue
		}
		seen[status] = struct{}{}
		result = append(result, status)
	}
	return result
}
