package admin

import (
	handlershared "github.com/realty-ledger/internal/http/handlers/shared"
	"github.com/realty-ledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UpdateCommissionStatusRequest 佣金状态变更请求
type UpdateCommissionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateCommissionStatus 变更佣金状态
func (h *Handler) UpdateCommissionStatus(c *gin.Context) {
	commissionID, ok := handlershared.ParamUint(c, "id", "error.commission_not_found")
	if !ok {
		return
	}
	var req UpdateCommissionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	commission, err := h.CommissionService.SetStatus(c.Request.Context(), commissionID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, commission)
}
