package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/lock"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// contendedLedgerRepo 模拟其他写入者抢先提交：前 N 次版本 CAS 或写入失败
type contendedLedgerRepo struct {
	repository.LedgerRepository
	state *contentionState
}

type contentionState struct {
	mu           sync.Mutex
	bumpCalls    int
	lostBumps    int
	createCalls  int
	lockedWrites int
}

func newContendedLedgerRepo(inner repository.LedgerRepository, lostBumps, lockedWrites int) *contendedLedgerRepo {
	return &contendedLedgerRepo{
		LedgerRepository: inner,
		state:            &contentionState{lostBumps: lostBumps, lockedWrites: lockedWrites},
	}
}

func (r *contendedLedgerRepo) WithTx(tx *gorm.DB) repository.LedgerRepository {
	return &contendedLedgerRepo{LedgerRepository: r.LedgerRepository.WithTx(tx), state: r.state}
}

func (r *contendedLedgerRepo) WithContext(ctx context.Context) repository.LedgerRepository {
	return &contendedLedgerRepo{LedgerRepository: r.LedgerRepository.WithContext(ctx), state: r.state}
}

func (r *contendedLedgerRepo) BumpLedgerVersion(realtorID uint, expected uint64, now time.Time) (bool, error) {
	r.state.mu.Lock()
	r.state.bumpCalls++
	lost := r.state.bumpCalls <= r.state.lostBumps
	r.state.mu.Unlock()
	if lost {
		return false, nil
	}
	return r.LedgerRepository.BumpLedgerVersion(realtorID, expected, now)
}

func (r *contendedLedgerRepo) CreatePayout(payout *models.Payout) error {
	r.state.mu.Lock()
	r.state.createCalls++
	locked := r.state.createCalls <= r.state.lockedWrites
	r.state.mu.Unlock()
	if locked {
		return errors.New("database is locked (5) (SQLITE_BUSY)")
	}
	return r.LedgerRepository.CreatePayout(payout)
}

func (r *contendedLedgerRepo) bumps() int {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return r.state.bumpCalls
}

func setupContendedPayouts(t *testing.T, lostBumps, lockedWrites int) (*ledgerFixture, *contendedLedgerRepo, *PayoutService) {
	t.Helper()
	fx := setupLedgerFixture(t)
	createTestRealtor(t, fx.db, 1, "Alice")
	createTestBankAccount(t, fx.db, 1, "12345678", true)
	createTestCommission(t, fx.db, 1, 1000, constants.CommissionStatusApproved, time.Now())

	repo := newContendedLedgerRepo(fx.ledgerRepo, lostBumps, lockedWrites)
	payouts := NewPayoutService(repo, fx.realtorRepo, lock.NewLocalLocker(), fx.publisher, 5*time.Second)
	return fx, repo, payouts
}

func countPayouts(t *testing.T, fx *ledgerFixture) int64 {
	t.Helper()
	var count int64
	require.NoError(t, fx.db.Model(&models.Payout{}).Count(&count).Error)
	return count
}

func TestRequestPayoutSurfacesConflictAfterOneRetry(t *testing.T) {
	fx, repo, payouts := setupContendedPayouts(t, 2, 0)

	_, err := payouts.RequestPayout(context.Background(), PayoutRequestInput{RealtorID: 1, Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 2, repo.bumps())
	assert.Equal(t, int64(0), countPayouts(t, fx))
	assert.Empty(t, fx.publisher.kinds())
}

func TestRequestPayoutRetriesConflictWithFreshSnapshot(t *testing.T) {
	fx, repo, payouts := setupContendedPayouts(t, 1, 0)
	ctx := context.Background()

	payout, err := payouts.RequestPayout(ctx, PayoutRequestInput{RealtorID: 1, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, "100.00", payout.Amount.String())
	assert.Equal(t, 2, repo.bumps())
	assert.Equal(t, int64(1), countPayouts(t, fx))

	snapshot, err := fx.balances.Compute(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "900.00", snapshot.CurrentBalance.String())
	assert.Equal(t, []string{constants.NotificationKindWithdrawalRequested}, fx.publisher.kinds())
}

func TestRequestPayoutRetriesStoreLockError(t *testing.T) {
	fx, repo, payouts := setupContendedPayouts(t, 0, 1)

	_, err := payouts.RequestPayout(context.Background(), PayoutRequestInput{RealtorID: 1, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.bumps())
	assert.Equal(t, int64(1), countPayouts(t, fx))
}

func TestRequestPayoutSurfacesRepeatedStoreLockError(t *testing.T) {
	fx, _, payouts := setupContendedPayouts(t, 0, 2)

	_, err := payouts.RequestPayout(context.Background(), PayoutRequestInput{RealtorID: 1, Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.False(t, errors.Is(err, ErrStoreUnavailable))
	assert.Equal(t, int64(0), countPayouts(t, fx))
}

func TestSetCommissionStatusSurfacesConflictAfterOneRetry(t *testing.T) {
	fx := setupLedgerFixture(t)
	createTestRealtor(t, fx.db, 1, "Alice")
	commission := createTestCommission(t, fx.db, 1, 100, constants.CommissionStatusPending, time.Now())

	repo := newContendedLedgerRepo(fx.ledgerRepo, 2, 0)
	commissions := NewCommissionService(repo, lock.NewLocalLocker())

	_, err := commissions.SetStatus(context.Background(), commission.ID, constants.CommissionStatusApproved)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 2, repo.bumps())

	var reloaded models.Commission
	require.NoError(t, fx.db.First(&reloaded, commission.ID).Error)
	assert.Equal(t, constants.CommissionStatusPending, reloaded.Status)
}
