package shared

import (
	"github.com/realty-ledger/internal/http/response"
	"github.com/realty-ledger/internal/i18n"
	"github.com/realty-ledger/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString("request_id"); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondAppError 按请求语言输出业务错误，带原始错误时记录日志。
func RespondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr == nil {
		appErr = response.NewAppError(response.CodeInternal, "error.internal")
	}
	msg := i18n.Sprintf(i18n.ResolveLocale(c), appErr.Key, appErr.Args...)
	if appErr.Err != nil {
		log := RequestLog(c)
		if appErr.IsServerError() {
			log.Errorw("handler_error", "code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
		} else {
			log.Warnw("handler_rejected", "code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
		}
	}
	if appErr.Data != nil {
		response.ErrorWithData(c, appErr.Code, msg, appErr.Data)
		return
	}
	response.Error(c, appErr.Code, msg)
}

// RespondError 按业务码与文案 key 返回错误。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondAppError(c, response.NewAppError(code, key).WithCause(err))
}
