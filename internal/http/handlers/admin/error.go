package admin

import (
	"errors"

	handlershared "github.com/realty-ledger/internal/http/handlers/shared"
	"github.com/realty-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c).With("route", c.FullPath())
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// respondServiceError 审核类操作被状态机拒绝时留一条审计日志
func respondServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidTransition) || errors.Is(err, service.ErrConcurrencyConflict) {
		requestLog(c).Warnw("admin_review_rejected", "error", err)
	}
	handlershared.RespondServiceError(c, err)
}
