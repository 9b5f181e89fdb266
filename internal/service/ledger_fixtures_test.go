package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/lock"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/notify"
	"github.com/realty-ledger/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ledgerFixture struct {
	db            *gorm.DB
	ledgerRepo    *repository.GormLedgerRepository
	realtorRepo   *repository.GormRealtorRepository
	publisher     *recordingPublisher
	payouts       *PayoutService
	commissions   *CommissionService
	balances      *BalanceService
	reports       *ReportService
	notifications *NotificationService
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Dispatch(event notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]string, 0, len(p.events))
	for _, event := range p.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func openLedgerTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func setupLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := openLedgerTestDB(t, "ledger_service_test")
	ledgerRepo := repository.NewLedgerRepository(db)
	realtorRepo := repository.NewRealtorRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	locker := lock.NewLocalLocker()
	publisher := &recordingPublisher{}

	notificationService := NewNotificationService(notificationRepo)
	notificationService.publish = nil

	return &ledgerFixture{
		db:            db,
		ledgerRepo:    ledgerRepo,
		realtorRepo:   realtorRepo,
		publisher:     publisher,
		payouts:       NewPayoutService(ledgerRepo, realtorRepo, locker, publisher, 5*time.Second),
		commissions:   NewCommissionService(ledgerRepo, locker),
		balances:      NewBalanceService(ledgerRepo),
		reports:       NewReportService(reportRepo, ledgerRepo, realtorRepo, 10, 0),
		notifications: notificationService,
	}
}

func createTestRealtor(t *testing.T, db *gorm.DB, id uint, name string) *models.Realtor {
	t.Helper()
	realtor := &models.Realtor{
		ID:          id,
		DisplayName: name,
		Email:       fmt.Sprintf("realtor_%d@example.com", id),
		IsActive:    true,
	}
	if err := db.Create(realtor).Error; err != nil {
		t.Fatalf("create realtor failed: %v", err)
	}
	return realtor
}

func createTestBankAccount(t *testing.T, db *gorm.DB, realtorID uint, number string, isDefault bool) *models.RealtorBankAccount {
	t.Helper()
	account := &models.RealtorBankAccount{
		RealtorID:     realtorID,
		BankName:      "First Federal",
		AccountName:   "Test Realtor",
		AccountNumber: number,
		RoutingCode:   "FF001",
		IsDefault:     isDefault,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create bank account failed: %v", err)
	}
	return account
}

func createTestCommission(t *testing.T, db *gorm.DB, realtorID uint, amount int64, status string, createdAt time.Time) *models.Commission {
	t.Helper()
	commission := &models.Commission{
		RealtorID: realtorID,
		Amount:    models.NewMoneyFromInt(amount),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := db.Create(commission).Error; err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
	return commission
}

func createTestPayout(t *testing.T, db *gorm.DB, realtorID uint, amount int64, status string) *models.Payout {
	t.Helper()
	now := time.Now()
	payout := &models.Payout{
		RequestNo: uuid.NewString(),
		RealtorID: realtorID,
		Amount:    models.NewMoneyFromInt(amount),
		Status:    status,
		Bank: models.BankDetails{
			BankName:      "First Federal",
			AccountName:   "Test Realtor",
			AccountNumber: "00001234",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(payout).Error; err != nil {
		t.Fatalf("create payout failed: %v", err)
	}
	return payout
}

func reloadPayout(t *testing.T, db *gorm.DB, id uint) *models.Payout {
	t.Helper()
	var payout models.Payout
	if err := db.First(&payout, id).Error; err != nil {
		t.Fatalf("reload payout failed: %v", err)
	}
	return &payout
}

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parse decimal %q failed: %v", raw, err)
	}
	return d
}

func assertMoney(t *testing.T, label string, got models.Money, want string) {
	t.Helper()
	if got.String() != want {
		t.Fatalf("%s: want %s, got %s", label, want, got.String())
	}
}

var allLedgerStatuses = []string{
	constants.PayoutStatusPending,
	constants.PayoutStatusApproved,
	constants.PayoutStatusPaid,
	constants.PayoutStatusRejected,
}
