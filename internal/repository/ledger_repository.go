package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/realty-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository 佣金与提现账本数据访问接口
type LedgerRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) LedgerRepository
	WithContext(ctx context.Context) LedgerRepository

	EnsureLedgerForUpdate(realtorID uint) (*models.RealtorLedger, error)
	BumpLedgerVersion(realtorID uint, expected uint64, now time.Time) (bool, error)
	ListLedgerRealtorIDs() ([]uint, error)

	SumCommissionsByStatus(realtorID uint) (map[string]decimal.Decimal, error)
	SumPayoutsByStatus(realtorID uint) (map[string]decimal.Decimal, error)

	CreateCommission(commission *models.Commission) error
	GetCommissionByID(id uint) (*models.Commission, error)
	CompareAndSetCommissionStatus(id uint, from, to string, now time.Time) (bool, error)
	ListCommissionsByRealtor(realtorID uint) ([]models.Commission, error)

	CreatePayout(payout *models.Payout) error
	GetPayoutByID(id uint) (*models.Payout, error)
	GetPayoutByRequestNo(requestNo string) (*models.Payout, error)
	GetPayoutByIdempotencyKey(realtorID uint, key string) (*models.Payout, error)
	CompareAndSetPayoutStatus(id uint, from string, updates map[string]interface{}) (bool, error)
	ListPayouts(filter PayoutListFilter) ([]models.Payout, int64, error)
	ListPayoutsByRealtor(realtorID uint) ([]models.Payout, error)
}

// GormLedgerRepository GORM 账本仓储
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建账本仓储
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// WithContext 绑定上下文（超时、取消）
func (r *GormLedgerRepository) WithContext(ctx context.Context) LedgerRepository {
	if ctx == nil {
		return r
	}
	return &GormLedgerRepository{db: r.db.WithContext(ctx)}
}

// Transaction 执行事务
func (r *GormLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// EnsureLedgerForUpdate 锁定经纪人账本行，不存在时先创建
func (r *GormLedgerRepository) EnsureLedgerForUpdate(realtorID uint) (*models.RealtorLedger, error) {
	if realtorID == 0 {
		return nil, errors.New("realtor id is required")
	}
	row, err := r.getLedgerForUpdate(realtorID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}
	ledger := &models.RealtorLedger{RealtorID: realtorID}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "realtor_id"}},
		DoNothing: true,
	}).Create(ledger).Error; err != nil {
		return nil, err
	}
	row, err = r.getLedgerForUpdate(realtorID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errors.New("realtor ledger row missing after create")
	}
	return row, nil
}

func (r *GormLedgerRepository) getLedgerForUpdate(realtorID uint) (*models.RealtorLedger, error) {
	var row models.RealtorLedger
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("realtor_id = ?", realtorID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// BumpLedgerVersion 按期望版本递增账本版本，版本不匹配时返回 false
func (r *GormLedgerRepository) BumpLedgerVersion(realtorID uint, expected uint64, now time.Time) (bool, error) {
	result := r.db.Model(&models.RealtorLedger{}).
		Where("realtor_id = ? AND version = ?", realtorID, expected).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListLedgerRealtorIDs 列出已有账本行的经纪人
func (r *GormLedgerRepository) ListLedgerRealtorIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.RealtorLedger{}).Order("realtor_id asc").Pluck("realtor_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

type statusTotalRow struct {
	Status string          `gorm:"column:status"`
	Total  decimal.Decimal `gorm:"column:total"`
}

// SumCommissionsByStatus 单条语句按状态汇总佣金
func (r *GormLedgerRepository) SumCommissionsByStatus(realtorID uint) (map[string]decimal.Decimal, error) {
	return r.sumByStatus(&models.Commission{}, realtorID)
}

// SumPayoutsByStatus 单条语句按状态汇总提现，状态迁移前后只会被计入一次
func (r *GormLedgerRepository) SumPayoutsByStatus(realtorID uint) (map[string]decimal.Decimal, error) {
	return r.sumByStatus(&models.Payout{}, realtorID)
}

func (r *GormLedgerRepository) sumByStatus(model interface{}, realtorID uint) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	if realtorID == 0 {
		return totals, nil
	}
	var rows []statusTotalRow
	if err := r.db.Model(model).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("realtor_id = ?", realtorID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[strings.TrimSpace(row.Status)] = row.Total.Round(2)
	}
	return totals, nil
}

// CreateCommission 创建佣金记录
func (r *GormLedgerRepository) CreateCommission(commission *models.Commission) error {
	if commission == nil {
		return errors.New("commission is nil")
	}
	return r.db.Create(commission).Error
}

// GetCommissionByID 按ID获取佣金
func (r *GormLedgerRepository) GetCommissionByID(id uint) (*models.Commission, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Commission
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CompareAndSetCommissionStatus 当前状态等于 from 时才更新为 to
func (r *GormLedgerRepository) CompareAndSetCommissionStatus(id uint, from, to string, now time.Time) (bool, error) {
	result := r.db.Model(&models.Commission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListCommissionsByRealtor 查询经纪人全部佣金
func (r *GormLedgerRepository) ListCommissionsByRealtor(realtorID uint) ([]models.Commission, error) {
	var rows []models.Commission
	if realtorID == 0 {
		return rows, nil
	}
	if err := r.db.Where("realtor_id = ?", realtorID).Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreatePayout 创建提现申请
func (r *GormLedgerRepository) CreatePayout(payout *models.Payout) error {
	if payout == nil {
		return errors.New("payout is nil")
	}
	return r.db.Create(payout).Error
}

// GetPayoutByID 按ID获取提现
func (r *GormLedgerRepository) GetPayoutByID(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Payout
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetPayoutByRequestNo 按对外单号获取提现
func (r *GormLedgerRepository) GetPayoutByRequestNo(requestNo string) (*models.Payout, error) {
	requestNo = strings.TrimSpace(requestNo)
	if requestNo == "" {
		return nil, nil
	}
	var row models.Payout
	if err := r.db.Where("request_no = ?", requestNo).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetPayoutByIdempotencyKey 按幂等键获取提现
func (r *GormLedgerRepository) GetPayoutByIdempotencyKey(realtorID uint, key string) (*models.Payout, error) {
	key = strings.TrimSpace(key)
	if realtorID == 0 || key == "" {
		return nil, nil
	}
	var row models.Payout
	if err := r.db.Where("realtor_id = ? AND idempotency_key = ?", realtorID, key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CompareAndSetPayoutStatus 当前状态等于 from 时才写入更新
func (r *GormLedgerRepository) CompareAndSetPayoutStatus(id uint, from string, updates map[string]interface{}) (bool, error) {
	if id == 0 || len(updates) == 0 {
		return false, nil
	}
	result := r.db.Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListPayouts 查询提现列表
func (r *GormLedgerRepository) ListPayouts(filter PayoutListFilter) ([]models.Payout, int64, error) {
	query := r.db.Model(&models.Payout{})
	if filter.RealtorID != 0 {
		query = query.Where("realtor_id = ?", filter.RealtorID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if requestNo := strings.TrimSpace(filter.RequestNo); requestNo != "" {
		query = query.Where("request_no = ?", requestNo)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, payoutKeywordColumns)
		query = query.Where(condition, repeatLikeArgs("%"+escapeLike(keyword)+"%", argCount)...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Payout
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListPayoutsByRealtor 查询经纪人全部提现
func (r *GormLedgerRepository) ListPayoutsByRealtor(realtorID uint) ([]models.Payout, error) {
	var rows []models.Payout
	if realtorID == 0 {
		return rows, nil
	}
	if err := r.db.Where("realtor_id = ?", realtorID).Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
