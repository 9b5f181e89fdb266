package realtor

import (
	handlershared "github.com/realty-ledger/internal/http/handlers/shared"
	"github.com/realty-ledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetBalance 查询经纪人余额
func (h *Handler) GetBalance(c *gin.Context) {
	realtorID, ok := handlershared.ParamUint(c, "id", "error.realtor_invalid")
	if !ok {
		return
	}
	snapshot, err := h.BalanceService.Compute(c.Request.Context(), realtorID)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// GetTransactions 查询经纪人流水
func (h *Handler) GetTransactions(c *gin.Context) {
	realtorID, ok := handlershared.ParamUint(c, "id", "error.realtor_invalid")
	if !ok {
		return
	}
	page, pageSize := handlershared.ReadPagination(c)
	entries, total, err := h.ReportService.GetTransactions(c.Request.Context(), realtorID, page, pageSize)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, entries, response.BuildPagination(page, pageSize, total))
}
