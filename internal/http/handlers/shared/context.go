package shared

import (
	"strconv"
	"strings"

	"github.com/realty-ledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ParamUint 读取路径中的正整数参数并统一处理错误响应。
func ParamUint(c *gin.Context, name, invalidKey string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(value), true
}

// QueryInt 读取整数查询参数，缺省或非法时返回 fallback。
func QueryInt(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
