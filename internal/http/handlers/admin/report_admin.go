package admin

import (
	"time"

	handlershared "github.com/realty-ledger/internal/http/handlers/shared"
	"github.com/realty-ledger/internal/http/response"
	"github.com/realty-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

func reportYear(c *gin.Context) int {
	return handlershared.QueryInt(c, "year", time.Now().UTC().Year())
}

// GetMonthlyTotals 按月汇总佣金
func (h *Handler) GetMonthlyTotals(c *gin.Context) {
	year := reportYear(c)
	statuses := service.ParseStatusList(c.Query("statuses"))
	totals, err := h.ReportService.MonthlyTotals(c.Request.Context(), year, statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"year":   year,
		"months": totals,
	})
}

// GetTopRealtors 佣金排行
func (h *Handler) GetTopRealtors(c *gin.Context) {
	limit := handlershared.QueryInt(c, "limit", 0)
	if limit < 0 {
		respondError(c, response.CodeBadRequest, "error.limit_invalid", nil)
		return
	}
	statuses := service.ParseStatusList(c.Query("statuses"))
	rows, err := h.ReportService.TopRealtors(c.Request.Context(), reportYear(c), statuses, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, rows)
}

// GetRecentReceipts 最近收据
func (h *Handler) GetRecentReceipts(c *gin.Context) {
	limit := handlershared.QueryInt(c, "limit", 0)
	if limit < 0 {
		respondError(c, response.CodeBadRequest, "error.limit_invalid", nil)
		return
	}
	rows, err := h.ReportService.RecentReceiptsEnriched(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, rows)
}

// GetMetrics 后台概览计数
func (h *Handler) GetMetrics(c *gin.Context) {
	metrics, err := h.ReportService.MetricCounts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, metrics)
}
