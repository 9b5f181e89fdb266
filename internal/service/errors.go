package service

import (
	"errors"
	"fmt"

	"github.com/realty-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientBalance 提现金额超过可用余额
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidBankDetails 未登记收款账户且未提供覆盖信息，或信息不合法
	ErrInvalidBankDetails = errors.New("invalid bank details")
	// ErrInvalidTransition 状态迁移不可达
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConcurrencyConflict 并发写冲突（重试一次后仍失败）
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrStoreUnavailable 存储不可用或超时，操作未生效
	ErrStoreUnavailable = errors.New("ledger store unavailable")

	// ErrIdempotencyKeyReused 幂等键已用于金额或收款账户不同的请求
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different payload")

	ErrInvalidPayoutAmount     = errors.New("payout amount must be positive with at most 2 decimal places")
	ErrInvalidCommissionAmount = errors.New("commission amount must not be negative and has at most 2 decimal places")
	ErrPayoutNotFound          = errors.New("payout not found")
	ErrCommissionNotFound      = errors.New("commission not found")
	ErrRealtorInvalid          = errors.New("realtor is invalid")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidReportYear       = errors.New("invalid report year")
)

// InsufficientBalanceError 余额不足，携带请求金额与可用余额
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// Is 匹配 ErrInsufficientBalance
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// InvalidTransitionError 状态迁移不合法
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s status transition: %s -> %s", e.Entity, e.From, e.To)
}

// Is 匹配 ErrInvalidTransition
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// wrapStoreError 将存储层错误归类为冲突或不可用
func wrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	if repository.IsConflictError(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrConcurrencyConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// isDomainError 业务错误直接透传，不做存储归类
func isDomainError(err error) bool {
	for _, target := range []error{
		ErrInsufficientBalance,
		ErrInvalidBankDetails,
		ErrInvalidTransition,
		ErrInvalidPayoutAmount,
		ErrInvalidCommissionAmount,
		ErrIdempotencyKeyReused,
		ErrPayoutNotFound,
		ErrCommissionNotFound,
		ErrRealtorInvalid,
		ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
