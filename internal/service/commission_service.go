package service

import (
	"context"
	"time"

	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/lock"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionService 佣金状态流转
type CommissionService struct {
	repo   repository.LedgerRepository
	locker lock.Locker
	now    func() time.Time
}

// CommissionInput 收据审核流程写入佣金的参数
type CommissionInput struct {
	RealtorID uint
	ReceiptID *uint
	Amount    decimal.Decimal
	CreatedAt time.Time // 为空时取当前时间
}

// NewCommissionService 创建佣金服务
func NewCommissionService(repo repository.LedgerRepository, locker lock.Locker) *CommissionService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &CommissionService{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// RecordCommission 写入待审核佣金
func (s *CommissionService) RecordCommission(ctx context.Context, input CommissionInput) (*models.Commission, error) {
	if input.RealtorID == 0 {
		return nil, ErrRealtorInvalid
	}
	amount := input.Amount
	if amount.IsNegative() || !models.HasMoneyScale(amount) {
		return nil, ErrInvalidCommissionAmount
	}
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	commission := &models.Commission{
		RealtorID: input.RealtorID,
		ReceiptID: input.ReceiptID,
		Amount:    models.NewMoneyFromDecimal(amount),
		Status:    constants.CommissionStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.repo.WithContext(ctx).CreateCommission(commission); err != nil {
		return nil, wrapStoreError("create commission", err)
	}
	InvalidateReportCache(ctx)
	return commission, nil
}

// SetStatus 变更佣金状态
// approved → paid 仅为展示标签，两者都计入收益，余额不变。
func (s *CommissionService) SetStatus(ctx context.Context, commissionID uint, status string) (*models.Commission, error) {
	target := normalizeStatus(status)
	if !IsCommissionStatus(target) {
		return nil, ErrInvalidStatus
	}
	current, err := s.repo.WithContext(ctx).GetCommissionByID(commissionID)
	if err != nil {
		return nil, wrapStoreError("get commission", err)
	}
	if current == nil {
		return nil, ErrCommissionNotFound
	}

	var updated *models.Commission
	var from string
	err = withConflictRetry(ctx, "set_commission_status", func() error {
		var attemptErr error
		updated, from, attemptErr = s.transitionCommission(ctx, current.ID, current.RealtorID, target)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	InvalidateReportCache(ctx)
	logger.Infow("commission_status_updated",
		"commission_id", updated.ID,
		"realtor_id", updated.RealtorID,
		"from", from,
		"to", updated.Status,
	)
	return updated, nil
}

func (s *CommissionService) transitionCommission(ctx context.Context, commissionID, realtorID uint, target string) (*models.Commission, string, error) {
	var result *models.Commission
	var from string

	err := s.locker.WithLock(ctx, ledgerLockKey(realtorID), func(ctx context.Context) error {
		return s.repo.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			ledger, err := txRepo.EnsureLedgerForUpdate(realtorID)
			if err != nil {
				return err
			}
			commission, err := txRepo.GetCommissionByID(commissionID)
			if err != nil {
				return err
			}
			if commission == nil {
				return ErrCommissionNotFound
			}
			from = commission.Status
			if !CanTransitionCommission(from, target) {
				logger.Errorw("commission_invalid_transition",
					"commission_id", commission.ID,
					"realtor_id", commission.RealtorID,
					"from", from,
					"to", target,
				)
				return &InvalidTransitionError{Entity: entityCommission, From: from, To: target}
			}
			now := s.now()
			ok, err := txRepo.CompareAndSetCommissionStatus(commission.ID, from, target, now)
			if err != nil {
				return err
			}
			if !ok {
				return ErrConcurrencyConflict
			}
			bumped, err := txRepo.BumpLedgerVersion(realtorID, ledger.Version, now)
			if err != nil {
				return err
			}
			if !bumped {
				return ErrConcurrencyConflict
			}
			commission.Status = target
			commission.UpdatedAt = now
			result = commission
			return nil
		})
	})
	if err != nil {
		return nil, from, classifyLedgerError(ctx, "set commission status", err)
	}
	return result, from, nil
}

// ListByRealtor 查询经纪人全部佣金
func (s *CommissionService) ListByRealtor(ctx context.Context, realtorID uint) ([]models.Commission, error) {
	rows, err := s.repo.WithContext(ctx).ListCommissionsByRealtor(realtorID)
	if err != nil {
		return nil, wrapStoreError("list commissions", err)
	}
	return rows, nil
}
