package admin

import (
	"strings"

	handlershared "github.com/realty-ledger/internal/http/handlers/shared"
	"github.com/realty-ledger/internal/http/response"
	"github.com/realty-ledger/internal/repository"
	"github.com/realty-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdatePayoutStatusRequest 审核提现请求
type UpdatePayoutStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdatePayoutStatus 审核提现，路径参数为对外提现单号
func (h *Handler) UpdatePayoutStatus(c *gin.Context) {
	requestNo := strings.TrimSpace(c.Param("request_no"))
	if requestNo == "" {
		respondError(c, response.CodeBadRequest, "error.payout_not_found", nil)
		return
	}
	var req UpdatePayoutStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	payout, err := h.PayoutService.UpdateStatus(c.Request.Context(), service.PayoutStatusInput{
		RequestNo: requestNo,
		Status:    req.Status,
		Reason:    req.Reason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_payout_status_updated",
		"request_no", payout.RequestNo,
		"status", payout.Status,
	)
	response.Success(c, handlershared.NewPayoutView(payout))
}

// ListPayouts 提现审核列表
func (h *Handler) ListPayouts(c *gin.Context) {
	page, pageSize := handlershared.ReadPagination(c)
	filter := repository.PayoutListFilter{
		Page:      page,
		PageSize:  pageSize,
		Status:    strings.TrimSpace(c.Query("status")),
		RequestNo: strings.TrimSpace(c.Query("request_no")),
		Keyword:   strings.TrimSpace(c.Query("keyword")),
	}
	if raw := handlershared.QueryInt(c, "realtor_id", 0); raw > 0 {
		filter.RealtorID = uint(raw)
	}
	rows, total, err := h.PayoutService.ListPayouts(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, handlershared.NewPayoutViews(rows), response.BuildPagination(page, pageSize, total))
}
