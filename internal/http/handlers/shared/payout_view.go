package shared

import (
	"time"

	"github.com/realty-ledger/internal/models"
)

// PayoutView 对外展示的提现单，账号脱敏且不含内部主键。
type PayoutView struct {
	RequestNo     string       `json:"request_no"`
	RealtorID     uint         `json:"realtor_id"`
	Amount        models.Money `json:"amount"`
	Status        string       `json:"status"`
	BankName      string       `json:"bank_name"`
	AccountName   string       `json:"account_name"`
	AccountNumber string       `json:"account_number"`
	RejectReason  string       `json:"reject_reason,omitempty"`
	ReviewedAt    *time.Time   `json:"reviewed_at,omitempty"`
	PaidAt        *time.Time   `json:"paid_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewPayoutView 转换提现单
func NewPayoutView(payout *models.Payout) PayoutView {
	if payout == nil {
		return PayoutView{}
	}
	return PayoutView{
		RequestNo:     payout.RequestNo,
		RealtorID:     payout.RealtorID,
		Amount:        payout.Amount,
		Status:        payout.Status,
		BankName:      payout.Bank.BankName,
		AccountName:   payout.Bank.AccountName,
		AccountNumber: payout.Bank.MaskedAccountNumber(),
		RejectReason:  payout.RejectReason,
		ReviewedAt:    payout.ReviewedAt,
		PaidAt:        payout.PaidAt,
		CreatedAt:     payout.CreatedAt,
		UpdatedAt:     payout.UpdatedAt,
	}
}

// NewPayoutViews 批量转换
func NewPayoutViews(payouts []models.Payout) []PayoutView {
	views := make([]PayoutView, 0, len(payouts))
	for i := range payouts {
		views = append(views, NewPayoutView(&payouts[i]))
	}
	return views
}
