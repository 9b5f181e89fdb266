package repository

import (
	"context"
	"errors"
	"strings"
)

// IsUniqueViolation 判断是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// IsConflictError 判断是否为并发写冲突（序列化失败、死锁、库表锁定）
func IsConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"could not serialize",
		"deadlock detected",
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"sqlite_locked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsTimeoutError 判断是否为超时或取消
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
