package service

import (
	"context"

	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot 经纪人余额快照（派生数据，不落库）
type BalanceSnapshot struct {
	RealtorID          uint         `json:"realtor_id"`
	TotalEarnings      models.Money `json:"total_earnings"`
	TotalWithdrawals   models.Money `json:"total_withdrawals"`
	PendingPayouts     models.Money `json:"pending_payouts"`
	PendingCommissions models.Money `json:"pending_commissions"`
	TotalPending       models.Money `json:"total_pending"`
	CurrentBalance     models.Money `json:"current_balance"`
}

// EarningCommissionStatuses 计入收益的佣金状态
func EarningCommissionStatuses() []string {
	return []string{constants.CommissionStatusApproved, constants.CommissionStatusPaid}
}

// ReservedPayoutStatuses 占用余额的提现状态（未终结）
func ReservedPayoutStatuses() []string {
	return []string{constants.PayoutStatusPending, constants.PayoutStatusApproved}
}

// BuildBalanceSnapshot 根据按状态汇总的金额构建余额快照
func BuildBalanceSnapshot(realtorID uint, commissionTotals, payoutTotals map[string]decimal.Decimal) BalanceSnapshot {
	earnings := sumStatuses(commissionTotals, EarningCommissionStatuses())
	pendingCommissions := sumStatuses(commissionTotals, []string{constants.CommissionStatusPending})
	withdrawals := sumStatuses(payoutTotals, []string{constants.PayoutStatusPaid})
	pendingPayouts := sumStatuses(payoutTotals, ReservedPayoutStatuses())

	return BalanceSnapshot{
		RealtorID:          realtorID,
		TotalEarnings:      models.NewMoneyFromDecimal(earnings),
		TotalWithdrawals:   models.NewMoneyFromDecimal(withdrawals),
		PendingPayouts:     models.NewMoneyFromDecimal(pendingPayouts),
		PendingCommissions: models.NewMoneyFromDecimal(pendingCommissions),
		TotalPending:       models.NewMoneyFromDecimal(pendingCommissions.Add(pendingPayouts)),
		CurrentBalance:     models.NewMoneyFromDecimal(earnings.Sub(withdrawals).Sub(pendingPayouts)),
	}
}

// CalculateBalance 纯函数：基于佣金与提现记录计算余额，忽略其他经纪人的记录
func CalculateBalance(realtorID uint, commissions []models.Commission, payouts []models.Payout) BalanceSnapshot {
	commissionTotals := make(map[string]decimal.Decimal)
	for _, item := range commissions {
		if item.RealtorID != realtorID {
			continue
		}
		commissionTotals[item.Status] = commissionTotals[item.Status].Add(item.Amount.Decimal)
	}
	payoutTotals := make(map[string]decimal.Decimal)
	for _, item := range payouts {
		if item.RealtorID != realtorID {
			continue
		}
		payoutTotals[item.Status] = payoutTotals[item.Status].Add(item.Amount.Decimal)
	}
	return BuildBalanceSnapshot(realtorID, commissionTotals, payoutTotals)
}

func sumStatuses(totals map[string]decimal.Decimal, statuses []string) decimal.Decimal {
	sum := decimal.Zero
	for _, status := range statuses {
		if value, ok := totals[status]; ok {
			sum = sum.Add(value)
		}
	}
	return sum
}

// BalanceService 余额计算服务
type BalanceService struct {
	repo repository.LedgerRepository
}

// NewBalanceService 创建余额计算服务
func NewBalanceService(repo repository.LedgerRepository) *BalanceService {
	return &BalanceService{repo: repo}
}

// Compute 计算经纪人当前余额，未知经纪人返回全零快照
func (s *BalanceService) Compute(ctx context.Context, realtorID uint) (*BalanceSnapshot, error) {
	if s == nil || s.repo == nil {
		snapshot := BuildBalanceSnapshot(realtorID, nil, nil)
		return &snapshot, nil
	}
	snapshot, err := computeBalance(s.repo.WithContext(ctx), realtorID)
	if err != nil {
		return nil, wrapStoreError("compute balance", err)
	}
	return snapshot, nil
}

// AuditBalances 巡检全部账本，返回余额为负的经纪人数量
func (s *BalanceService) AuditBalances(ctx context.Context) (int, error) {
	if s == nil || s.repo == nil {
		return 0, nil
	}
	repo := s.repo.WithContext(ctx)
	ids, err := repo.ListLedgerRealtorIDs()
	if err != nil {
		return 0, wrapStoreError("list ledgers", err)
	}
	violations := 0
	for _, realtorID := range ids {
		if err := ctx.Err(); err != nil {
			return violations, err
		}
		snapshot, err := computeBalance(repo, realtorID)
		if err != nil {
			logger.Warnw("ledger_audit_compute_failed", "realtor_id", realtorID, "error", err)
			continue
		}
		if snapshot.CurrentBalance.IsNegative() {
			violations++
			logger.Errorw("ledger_audit_negative_balance",
				"realtor_id", realtorID,
				"current_balance", snapshot.CurrentBalance.String(),
				"total_earnings", snapshot.TotalEarnings.String(),
				"total_withdrawals", snapshot.TotalWithdrawals.String(),
				"pending_payouts", snapshot.PendingPayouts.String(),
			)
		}
	}
	return violations, nil
}

func computeBalance(repo repository.LedgerRepository, realtorID uint) (*BalanceSnapshot, error) {
	if realtorID == 0 {
		snapshot := BuildBalanceSnapshot(realtorID, nil, nil)
		return &snapshot, nil
	}
	commissionTotals, err := repo.SumCommissionsByStatus(realtorID)
	if err != nil {
		return nil, err
	}
	payoutTotals, err := repo.SumPayoutsByStatus(realtorID)
	if err != nil {
		return nil, err
	}
	snapshot := BuildBalanceSnapshot(realtorID, commissionTotals, payoutTotals)
	return &snapshot, nil
}
