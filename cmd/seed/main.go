package main

import (
	"context"
	"time"

	"github.com/realty-ledger/internal/config"
	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/lock"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/repository"
	"github.com/realty-ledger/internal/service"

	"github.com/shopspring/decimal"
)

type seedCommission struct {
	amount string
	status string
	month  time.Month
}

type seedRealtor struct {
	name        string
	email       string
	bank        models.RealtorBankAccount
	commissions []seedCommission
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Database.LogLevel); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	commissionSvc := service.NewCommissionService(repository.NewLedgerRepository(models.DB), lock.NewLocalLocker())
	year := time.Now().UTC().Year()

	realtors := []seedRealtor{
		{
			name:  "Alice Chen",
			email: "alice@example.com",
			bank: models.RealtorBankAccount{
				BankName:      "First Harbor Bank",
				AccountName:   "Alice Chen",
				AccountNumber: "6222000011112222",
				RoutingCode:   "FHBKUS33",
				IsDefault:     true,
			},
			commissions: []seedCommission{
				{amount: "1000.00", status: constants.CommissionStatusApproved, month: time.January},
				{amount: "2500.50", status: constants.CommissionStatusPaid, month: time.March},
				{amount: "800.00", status: constants.CommissionStatusPending, month: time.April},
			},
		},
		{
			name:  "Bruno Li",
			email: "bruno@example.com",
			bank: models.RealtorBankAccount{
				BankName:      "Coastal Credit Union",
				AccountName:   "Bruno Li",
				AccountNumber: "4000123499998888",
				IsDefault:     true,
			},
			commissions: []seedCommission{
				{amount: "1800.00", status: constants.CommissionStatusApproved, month: time.February},
				{amount: "600.00", status: constants.CommissionStatusRejected, month: time.February},
			},
		},
	}

	for _, item := range realtors {
		var existing models.Realtor
		if err := models.DB.Where("email = ?", item.email).First(&existing).Error; err == nil {
			stdLog.Printf("Realtor already exists: %s", item.email)
			continue
		}

		realtor := models.Realtor{DisplayName: item.name, Email: item.email, IsActive: true}
		if err := models.DB.Create(&realtor).Error; err != nil {
			stdLog.Printf("Failed to create realtor %s: %v", item.email, err)
			continue
		}
		account := item.bank
		account.RealtorID = realtor.ID
		if err := models.DB.Create(&account).Error; err != nil {
			stdLog.Printf("Failed to create bank account for %s: %v", item.email, err)
		}

		for idx, entry := range item.commissions {
			createdAt := time.Date(year, entry.month, 10+idx, 9, 0, 0, 0, time.UTC)
			amount := decimal.RequireFromString(entry.amount)
			receipt := models.Receipt{
				RealtorID:     realtor.ID,
				PropertyTitle: item.name + " listing " + createdAt.Format("2006-01"),
				SalePrice:     models.NewMoneyFromDecimal(amount.Mul(decimal.NewFromInt(40))),
				Status:        constants.ReceiptStatusApproved,
				CreatedAt:     createdAt,
				UpdatedAt:     createdAt,
			}
			if err := models.DB.Create(&receipt).Error; err != nil {
				stdLog.Printf("Failed to create receipt: %v", err)
				continue
			}
			commission, err := commissionSvc.RecordCommission(ctx, service.CommissionInput{
				RealtorID: realtor.ID,
				ReceiptID: &receipt.ID,
				Amount:    amount,
				CreatedAt: createdAt,
			})
			if err != nil {
				stdLog.Printf("Failed to create commission: %v", err)
				continue
			}
			// paid 需先经过 approved
			steps := []string{entry.status}
			if entry.status == constants.CommissionStatusPaid {
				steps = []string{constants.CommissionStatusApproved, constants.CommissionStatusPaid}
			}
			for _, step := range steps {
				if step == constants.CommissionStatusPending {
					continue
				}
				if _, err := commissionSvc.SetStatus(ctx, commission.ID, step); err != nil {
					stdLog.Printf("Failed to set commission %d to %s: %v", commission.ID, step, err)
					break
				}
			}
		}
		stdLog.Printf("Created realtor: %s (id=%d)", item.email, realtor.ID)
	}

	stdLog.Println("Seed completed")
}
