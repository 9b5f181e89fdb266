package service

import (
	"context"
	"testing"
	"time"

	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/models"
)

func TestCalculateBalanceIgnoresOtherRealtors(t *testing.T) {
	commissions := []models.Commission{
		{RealtorID: 1, Amount: models.NewMoneyFromInt(1000), Status: constants.CommissionStatusApproved},
		{RealtorID: 1, Amount: models.NewMoneyFromInt(500), Status: constants.CommissionStatusPaid},
		{RealtorID: 1, Amount: models.NewMoneyFromInt(300), Status: constants.CommissionStatusPending},
		{RealtorID: 1, Amount: models.NewMoneyFromInt(900), Status: constants.CommissionStatusRejected},
		{RealtorID: 2, Amount: models.NewMoneyFromInt(7000), Status: constants.CommissionStatusApproved},
	}
	payouts := []models.Payout{
		{RealtorID: 1, Amount: models.NewMoneyFromInt(200), Status: constants.PayoutStatusPaid},
		{RealtorID: 1, Amount: models.NewMoneyFromInt(100), Status: constants.PayoutStatusPending},
		{RealtorID: 1, Amount: models.NewMoneyFromInt(50), Status: constants.PayoutStatusApproved},
		{RealtorID: 1, Amount: models.NewMoneyFromInt(400), Status: constants.PayoutStatusRejected},
		{RealtorID: 2, Amount: models.NewMoneyFromInt(6000), Status: constants.PayoutStatusPending},
	}

	snapshot := CalculateBalance(1, commissions, payouts)
	assertMoney(t, "total_earnings", snapshot.TotalEarnings, "1500.00")
	assertMoney(t, "total_withdrawals", snapshot.TotalWithdrawals, "200.00")
	assertMoney(t, "pending_payouts", snapshot.PendingPayouts, "150.00")
	assertMoney(t, "pending_commissions", snapshot.PendingCommissions, "300.00")
	assertMoney(t, "total_pending", snapshot.TotalPending, "450.00")
	assertMoney(t, "current_balance", snapshot.CurrentBalance, "1150.00")
}

func TestCalculateBalanceUsesExactDecimalArithmetic(t *testing.T) {
	commissions := []models.Commission{
		{RealtorID: 1, Amount: models.NewMoneyFromDecimal(mustDecimal(t, "0.10")), Status: constants.CommissionStatusApproved},
		{RealtorID: 1, Amount: models.NewMoneyFromDecimal(mustDecimal(t, "0.20")), Status: constants.CommissionStatusApproved},
	}
	payouts := []models.Payout{
		{RealtorID: 1, Amount: models.NewMoneyFromDecimal(mustDecimal(t, "0.30")), Status: constants.PayoutStatusPending},
	}
	snapshot := CalculateBalance(1, commissions, payouts)
	if !snapshot.CurrentBalance.IsZero() {
		t.Fatalf("expected exact zero balance, got %s", snapshot.CurrentBalance.String())
	}
}

func TestBalanceServiceUnknownRealtorIsZero(t *testing.T) {
	fx := setupLedgerFixture(t)

	snapshot, err := fx.balances.Compute(context.Background(), 9999)
	if err != nil {
		t.Fatalf("compute balance failed: %v", err)
	}
	assertMoney(t, "total_earnings", snapshot.TotalEarnings, "0.00")
	assertMoney(t, "total_withdrawals", snapshot.TotalWithdrawals, "0.00")
	assertMoney(t, "total_pending", snapshot.TotalPending, "0.00")
	assertMoney(t, "current_balance", snapshot.CurrentBalance, "0.00")
}

func TestBalanceServiceMatchesPureCalculation(t *testing.T) {
	fx := setupLedgerFixture(t)
	createTestRealtor(t, fx.db, 1, "Alice")
	now := time.Now()
	createTestCommission(t, fx.db, 1, 1000, constants.CommissionStatusApproved, now)
	createTestCommission(t, fx.db, 1, 250, constants.CommissionStatusPaid, now)
	createTestCommission(t, fx.db, 1, 400, constants.CommissionStatusPending, now)
	createTestPayout(t, fx.db, 1, 300, constants.PayoutStatusPaid)
	createTestPayout(t, fx.db, 1, 100, constants.PayoutStatusPending)
	createTestPayout(t, fx.db, 1, 999, constants.PayoutStatusRejected)

	snapshot, err := fx.balances.Compute(context.Background(), 1)
	if err != nil {
		t.Fatalf("compute balance failed: %v", err)
	}

	commissions, err := fx.ledgerRepo.ListCommissionsByRealtor(1)
	if err != nil {
		t.Fatalf("list commissions failed: %v", err)
	}
	payouts, err := fx.ledgerRepo.ListPayoutsByRealtor(1)
	if err != nil {
		t.Fatalf("list payouts failed: %v", err)
	}
	expected := CalculateBalance(1, commissions, payouts)

	if snapshot.CurrentBalance.String() != expected.CurrentBalance.String() ||
		snapshot.TotalPending.String() != expected.TotalPending.String() ||
		snapshot.TotalWithdrawals.String() != expected.TotalWithdrawals.String() {
		t.Fatalf("store snapshot %+v differs from pure snapshot %+v", snapshot, expected)
	}
	assertMoney(t, "current_balance", snapshot.CurrentBalance, "850.00")
}

func TestAuditBalancesReportsNegativeLedgers(t *testing.T) {
	fx := setupLedgerFixture(t)
	ctx := context.Background()
	createTestRealtor(t, fx.db, 1, "Healthy")
	createTestRealtor(t, fx.db, 2, "Broken")
	createTestCommission(t, fx.db, 1, 100, constants.CommissionStatusApproved, time.Now())
	createTestPayout(t, fx.db, 2, 50, constants.PayoutStatusPaid)
	if _, err := fx.ledgerRepo.EnsureLedgerForUpdate(1); err != nil {
		t.Fatalf("ensure ledger failed: %v", err)
	}
	if _, err := fx.ledgerRepo.EnsureLedgerForUpdate(2); err != nil {
		t.Fatalf("ensure ledger failed: %v", err)
	}

	violations, err := fx.balances.AuditBalances(ctx)
	if err != nil {
		t.Fatalf("audit balances failed: %v", err)
	}
	if violations != 1 {
		t.Fatalf("expected 1 negative ledger, got %d", violations)
	}
}
