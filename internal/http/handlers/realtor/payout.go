package realtor

import (
	"strings"

	handlershared "github.com/realty-ledger/internal/http/handlers/shared"
	"github.com/realty-ledger/internal/http/response"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/repository"
	"github.com/realty-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const idempotencyKeyHeader = "Idempotency-Key"

// BankDetailsRequest 本次提现使用的收款信息
type BankDetailsRequest struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	RoutingCode   string `json:"routing_code"`
}

// RequestPayoutRequest 发起提现请求
type RequestPayoutRequest struct {
	Amount         string              `json:"amount" binding:"required"`
	BankDetails    *BankDetailsRequest `json:"bank_details"`
	IdempotencyKey string              `json:"idempotency_key"`
}

// RequestPayout 发起提现
func (h *Handler) RequestPayout(c *gin.Context) {
	realtorID, ok := handlershared.ParamUint(c, "id", "error.realtor_invalid")
	if !ok {
		return
	}
	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "error.payout_amount_invalid", nil)
		return
	}
	key := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}
	input := service.PayoutRequestInput{
		RealtorID:      realtorID,
		Amount:         amount,
		IdempotencyKey: key,
	}
	if req.BankDetails != nil {
		input.BankDetails = &models.BankDetails{
			BankName:      strings.TrimSpace(req.BankDetails.BankName),
			AccountName:   strings.TrimSpace(req.BankDetails.AccountName),
			AccountNumber: strings.TrimSpace(req.BankDetails.AccountNumber),
			RoutingCode:   strings.TrimSpace(req.BankDetails.RoutingCode),
		}
	}

	payout, err := h.PayoutService.RequestPayout(c.Request.Context(), input)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.Success(c, handlershared.NewPayoutView(payout))
}

// ListPayouts 经纪人提现记录
func (h *Handler) ListPayouts(c *gin.Context) {
	realtorID, ok := handlershared.ParamUint(c, "id", "error.realtor_invalid")
	if !ok {
		return
	}
	page, pageSize := handlershared.ReadPagination(c)
	rows, total, err := h.PayoutService.ListPayouts(c.Request.Context(), repository.PayoutListFilter{
		Page:      page,
		PageSize:  pageSize,
		RealtorID: realtorID,
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, handlershared.NewPayoutViews(rows), response.BuildPagination(page, pageSize, total))
}
