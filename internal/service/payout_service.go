package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/lock"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/notify"
	"github.com/realty-ledger/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const rejectReasonMaxLen = 255

// PayoutService 提现申请与审核流程
type PayoutService struct {
	repo         repository.LedgerRepository
	realtorRepo  repository.RealtorRepository
	locker       lock.Locker
	publisher    notify.Publisher
	validate     *validator.Validate
	storeTimeout time.Duration
	now          func() time.Time
}

// PayoutRequestInput 提现申请参数
type PayoutRequestInput struct {
	RealtorID      uint
	Amount         decimal.Decimal
	BankDetails    *models.BankDetails // 为空时使用登记的默认账户
	IdempotencyKey string
}

// PayoutStatusInput 提现状态变更参数
type PayoutStatusInput struct {
	PayoutID  uint
	RequestNo string // PayoutID 为 0 时按对外单号定位
	Status    string
	Reason    string
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	repo repository.LedgerRepository,
	realtorRepo repository.RealtorRepository,
	locker lock.Locker,
	publisher notify.Publisher,
	storeTimeout time.Duration,
) *PayoutService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &PayoutService{
		repo:         repo,
		realtorRepo:  realtorRepo,
		locker:       locker,
		publisher:    publisher,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// RequestPayout 发起提现：余额校验与写入在同一临界区内完成
func (s *PayoutService) RequestPayout(ctx context.Context, input PayoutRequestInput) (*models.Payout, error) {
	if input.RealtorID == 0 {
		return nil, ErrRealtorInvalid
	}
	amount := input.Amount
	if !amount.IsPositive() || !models.HasMoneyScale(amount) {
		return nil, ErrInvalidPayoutAmount
	}
	key := strings.TrimSpace(input.IdempotencyKey)

	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	bank, err := s.resolveBankDetails(ctx, input.RealtorID, input.BankDetails)
	if err != nil {
		return nil, err
	}

	var payout *models.Payout
	var replayed bool
	err = withConflictRetry(ctx, "request_payout", func() error {
		var attemptErr error
		payout, replayed, attemptErr = s.reservePayout(ctx, input.RealtorID, amount, bank, key)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		logger.Infow("payout_request_replayed",
			"realtor_id", payout.RealtorID,
			"request_no", payout.RequestNo,
		)
		return payout, nil
	}

	InvalidateReportCache(ctx)
	logger.Infow("payout_requested",
		"realtor_id", payout.RealtorID,
		"request_no", payout.RequestNo,
		"amount", payout.Amount.String(),
	)
	s.publisher.Dispatch(payoutEvent(payout,
		constants.NotificationKindWithdrawalRequested,
		constants.NotificationTitleWithdrawalRequested,
		fmt.Sprintf("Your withdrawal request of %s has been received and is awaiting review.", payout.Amount.String()),
	))
	return payout, nil
}

// reservePayout 单次预留尝试：锁定账本 → 幂等检查 → 计算余额 → 写入提现 → 版本 CAS
func (s *PayoutService) reservePayout(ctx context.Context, realtorID uint, amount decimal.Decimal, bank models.BankDetails, key string) (*models.Payout, bool, error) {
	var result *models.Payout
	var replayed bool

	err := s.locker.WithLock(ctx, ledgerLockKey(realtorID), func(ctx context.Context) error {
		return s.repo.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			ledger, err := txRepo.EnsureLedgerForUpdate(realtorID)
			if err != nil {
				return err
			}

			if key != "" {
				existing, err := txRepo.GetPayoutByIdempotencyKey(realtorID, key)
				if err != nil {
					return err
				}
				if existing != nil {
					if !sameReservation(existing, amount, bank) {
						return ErrIdempotencyKeyReused
					}
					result = existing
					replayed = true
					return nil
				}
			}

			snapshot, err := computeBalance(txRepo, realtorID)
			if err != nil {
				return err
			}
			available := snapshot.CurrentBalance.Decimal
			if amount.GreaterThan(available) {
				return &InsufficientBalanceError{Requested: amount, Available: available}
			}

			now := s.now()
			payout := &models.Payout{
				RequestNo: uuid.NewString(),
				RealtorID: realtorID,
				Amount:    models.NewMoneyFromDecimal(amount),
				Status:    constants.PayoutStatusPending,
				Bank:      bank,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if key != "" {
				payout.IdempotencyKey = &key
			}
			if err := txRepo.CreatePayout(payout); err != nil {
				return err
			}

			bumped, err := txRepo.BumpLedgerVersion(realtorID, ledger.Version, now)
			if err != nil {
				return err
			}
			if !bumped {
				return ErrConcurrencyConflict
			}
			result = payout
			return nil
		})
	})
	if err == nil {
		return result, replayed, nil
	}

	if key != "" && repository.IsUniqueViolation(err) {
		existing, readErr := s.repo.WithContext(ctx).GetPayoutByIdempotencyKey(realtorID, key)
		if readErr == nil && existing != nil {
			if !sameReservation(existing, amount, bank) {
				return nil, false, ErrIdempotencyKeyReused
			}
			return existing, true, nil
		}
	}
	return nil, false, classifyLedgerError(ctx, "reserve payout", err)
}

// UpdateStatus 推进提现状态，仅允许状态机内的迁移
func (s *PayoutService) UpdateStatus(ctx context.Context, input PayoutStatusInput) (*models.Payout, error) {
	target := normalizeStatus(input.Status)
	if !IsPayoutStatus(target) {
		return nil, ErrInvalidStatus
	}

	ctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()

	current, err := s.lookupPayout(ctx, input.PayoutID, input.RequestNo)
	if err != nil {
		return nil, err
	}

	var updated *models.Payout
	var from string
	err = withConflictRetry(ctx, "update_payout_status", func() error {
		var attemptErr error
		updated, from, attemptErr = s.transitionPayout(ctx, current.ID, current.RealtorID, target, input.Reason)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	InvalidateReportCache(ctx)
	logger.Infow("payout_status_updated",
		"realtor_id", updated.RealtorID,
		"request_no", updated.RequestNo,
		"from", from,
		"to", updated.Status,
	)

	switch updated.Status {
	case constants.PayoutStatusPaid:
		s.publisher.Dispatch(payoutEvent(updated,
			constants.NotificationKindWithdrawalApproved,
			constants.NotificationTitleWithdrawalApproved,
			fmt.Sprintf("Your withdrawal of %s has been approved and paid out.", updated.Amount.String()),
		))
	case constants.PayoutStatusRejected:
		message := fmt.Sprintf("Your withdrawal request of %s was rejected.", updated.Amount.String())
		if updated.RejectReason != "" {
			message = fmt.Sprintf("%s Reason: %s", message, updated.RejectReason)
		}
		s.publisher.Dispatch(payoutEvent(updated,
			constants.NotificationKindWithdrawalRejected,
			constants.NotificationTitleWithdrawalRejected,
			message,
		))
	}
	return updated, nil
}

func (s *PayoutService) transitionPayout(ctx context.Context, payoutID, realtorID uint, target, reason string) (*models.Payout, string, error) {
	var result *models.Payout
	var from string

	err := s.locker.WithLock(ctx, ledgerLockKey(realtorID), func(ctx context.Context) error {
		return s.repo.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			ledger, err := txRepo.EnsureLedgerForUpdate(realtorID)
			if err != nil {
				return err
			}
			payout, err := txRepo.GetPayoutByID(payoutID)
			if err != nil {
				return err
			}
			if payout == nil {
				return ErrPayoutNotFound
			}
			from = payout.Status
			if !CanTransitionPayout(from, target) {
				logger.Errorw("payout_invalid_transition",
					"realtor_id", payout.RealtorID,
					"request_no", payout.RequestNo,
					"from", from,
					"to", target,
				)
				return &InvalidTransitionError{Entity: entityPayout, From: from, To: target}
			}

			now := s.now()
			updates := map[string]interface{}{
				"status":     target,
				"updated_at": now,
			}
			if from == constants.PayoutStatusPending {
				updates["reviewed_at"] = now
			}
			switch target {
			case constants.PayoutStatusPaid:
				updates["paid_at"] = now
			case constants.PayoutStatusRejected:
				updates["reject_reason"] = truncateReason(reason)
			}
			ok, err := txRepo.CompareAndSetPayoutStatus(payout.ID, from, updates)
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

			reloaded, err := txRepo.GetPayoutByID(payout.ID)
			if err != nil {
				return err
			}
			if reloaded == nil {
				return ErrPayoutNotFound
			}
			result = reloaded
			return nil
		})
	})
	if err != nil {
		return nil, from, classifyLedgerError(ctx, "update payout status", err)
	}
	return result, from, nil
}

// GetPayout 按ID获取提现
func (s *PayoutService) GetPayout(ctx context.Context, id uint) (*models.Payout, error) {
	return s.lookupPayout(ctx, id, "")
}

// GetPayoutByRequestNo 按对外单号获取提现
func (s *PayoutService) GetPayoutByRequestNo(ctx context.Context, requestNo string) (*models.Payout, error) {
	return s.lookupPayout(ctx, 0, requestNo)
}

// ListPayouts 分页查询提现记录
func (s *PayoutService) ListPayouts(ctx context.Context, filter repository.PayoutListFilter) ([]models.Payout, int64, error) {
	filter.Status = normalizeStatus(filter.Status)
	if filter.Status != "" && !IsPayoutStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	rows, total, err := s.repo.WithContext(ctx).ListPayouts(filter)
	if err != nil {
		return nil, 0, wrapStoreError("list payouts", err)
	}
	return rows, total, nil
}

func (s *PayoutService) lookupPayout(ctx context.Context, id uint, requestNo string) (*models.Payout, error) {
	repo := s.repo.WithContext(ctx)
	var payout *models.Payout
	var err error
	switch {
	case id != 0:
		payout, err = repo.GetPayoutByID(id)
	case strings.TrimSpace(requestNo) != "":
		payout, err = repo.GetPayoutByRequestNo(requestNo)
	default:
		return nil, ErrPayoutNotFound
	}
	if err != nil {
		return nil, wrapStoreError("get payout", err)
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// resolveBankDetails 优先使用覆盖信息，否则取登记的默认账户
func (s *PayoutService) resolveBankDetails(ctx context.Context, realtorID uint, override *models.BankDetails) (models.BankDetails, error) {
	if override != nil {
		bank := models.BankDetails{
			BankName:      strings.TrimSpace(override.BankName),
			AccountName:   strings.TrimSpace(override.AccountName),
			AccountNumber: strings.TrimSpace(override.AccountNumber),
			RoutingCode:   strings.TrimSpace(override.RoutingCode),
		}
		if err := s.validate.Struct(bank); err != nil {
			return models.BankDetails{}, fmt.Errorf("%w: %v", ErrInvalidBankDetails, err)
		}
		return bank, nil
	}
	if s.realtorRepo == nil {
		return models.BankDetails{}, ErrInvalidBankDetails
	}
	account, err := s.realtorRepo.WithContext(ctx).GetDefaultBankAccount(realtorID)
	if err != nil {
		return models.BankDetails{}, wrapStoreError("get bank account", err)
	}
	if account == nil {
		return models.BankDetails{}, ErrInvalidBankDetails
	}
	bank := account.ToBankDetails()
	if err := s.validate.Struct(bank); err != nil {
		return models.BankDetails{}, fmt.Errorf("%w: %v", ErrInvalidBankDetails, err)
	}
	return bank, nil
}

func (s *PayoutService) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// ledgerLockKey 经纪人账本互斥 key
func ledgerLockKey(realtorID uint) string {
	return fmt.Sprintf("%s:%d", constants.LockKeyRealtorLedger, realtorID)
}

// withConflictRetry 并发冲突时以新快照重试一次
func withConflictRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, ErrConcurrencyConflict) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	logger.Warnw("ledger_conflict_retry", "op", op, "error", err)
	return fn()
}

// classifyLedgerError 归类临界区返回的错误
func classifyLedgerError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) || errors.Is(err, ErrConcurrencyConflict) {
		return err
	}
	if errors.Is(err, lock.ErrLockNotAcquired) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, ctxErr)
		}
		return fmt.Errorf("%s: %w: %v", op, ErrConcurrencyConflict, err)
	}
	return wrapStoreError(op, err)
}

// sameReservation 幂等重放要求金额与收款账户与首次请求一致
func sameReservation(existing *models.Payout, amount decimal.Decimal, bank models.BankDetails) bool {
	return existing.Amount.Decimal.Equal(amount) && existing.Bank == bank
}

func truncateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	runes := []rune(reason)
	if len(runes) > rejectReasonMaxLen {
		return string(runes[:rejectReasonMaxLen])
	}
	return reason
}

func payoutEvent(payout *models.Payout, kind, title, message string) notify.Event {
	return notify.Event{
		RealtorID: payout.RealtorID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Metadata: map[string]interface{}{
			"request_no":     payout.RequestNo,
			"amount":         payout.Amount.String(),
			"status":         payout.Status,
			"account_number": payout.Bank.MaskedAccountNumber(),
		},
		OccurredAt: time.Now(),
	}
}
