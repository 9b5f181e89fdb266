package shared

import (
	"errors"

	"github.com/realty-ledger/internal/http/response"
	"github.com/realty-ledger/internal/service"

	"github.com/gin-gonic/gin"
)

var serviceErrorCodes = []struct {
	target error
	code   int
	key    string
}{
	{service.ErrRealtorInvalid, response.CodeBadRequest, "error.realtor_invalid"},
	{service.ErrInvalidPayoutAmount, response.CodeBadRequest, "error.payout_amount_invalid"},
	{service.ErrInvalidCommissionAmount, response.CodeBadRequest, "error.commission_amount_invalid"},
	{service.ErrInvalidBankDetails, response.CodeBadRequest, "error.bank_details_invalid"},
	{service.ErrInvalidStatus, response.CodeBadRequest, "error.status_invalid"},
	{service.ErrInvalidReportYear, response.CodeBadRequest, "error.year_invalid"},
	{service.ErrPayoutNotFound, response.CodeNotFound, "error.payout_not_found"},
	{service.ErrCommissionNotFound, response.CodeNotFound, "error.commission_not_found"},
	{service.ErrNotificationNotFound, response.CodeNotFound, "error.notification_not_found"},
	{service.ErrIdempotencyKeyReused, response.CodeConflict, "error.idempotency_key_reused"},
	{service.ErrConcurrencyConflict, response.CodeConflict, "error.conflict"},
	{service.ErrStoreUnavailable, response.CodeServiceUnavailable, "error.store_unavailable"},
}

// AppErrorFromService 将账本服务错误映射为业务错误，文案不含内部编号。
func AppErrorFromService(err error) *response.AppError {
	var insufficient *service.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		available := insufficient.Available.StringFixed(2)
		return response.NewAppError(response.CodeUnprocessable, "error.insufficient_balance", available).
			WithData(gin.H{
				"requested": insufficient.Requested.StringFixed(2),
				"available": available,
			})
	}
	var transition *service.InvalidTransitionError
	if errors.As(err, &transition) {
		return response.NewAppError(response.CodeConflict, "error.transition_invalid", transition.To).
			WithData(gin.H{"from": transition.From, "to": transition.To})
	}
	for _, item := range serviceErrorCodes {
		if errors.Is(err, item.target) {
			appErr := response.NewAppError(item.code, item.key)
			// 4xx 属于预期结果，不记录原始错误
			if appErr.IsServerError() {
				appErr.WithCause(err)
			}
			return appErr
		}
	}
	return response.NewAppError(response.CodeInternal, "error.internal").WithCause(err)
}

// RespondServiceError 输出账本服务错误。
func RespondServiceError(c *gin.Context, err error) {
	RespondAppError(c, AppErrorFromService(err))
}
