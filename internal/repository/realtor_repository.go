package repository

import (
	"context"
	"errors"

	"github.com/realty-ledger/internal/models"

	"gorm.io/gorm"
)

// RealtorRepository 经纪人资料与收款账户数据访问接口
type RealtorRepository interface {
	WithContext(ctx context.Context) RealtorRepository

	GetByID(id uint) (*models.Realtor, error)
	Create(realtor *models.Realtor) error
	ListByIDs(ids []uint) ([]models.Realtor, error)
	Count() (int64, error)

	CreateBankAccount(account *models.RealtorBankAccount) error
	UpdateBankAccount(account *models.RealtorBankAccount) error
	GetDefaultBankAccount(realtorID uint) (*models.RealtorBankAccount, error)
	ListBankAccounts(realtorID uint) ([]models.RealtorBankAccount, error)
}

// GormRealtorRepository GORM 经纪人仓储
type GormRealtorRepository struct {
	db *gorm.DB
}

// NewRealtorRepository 创建经纪人仓储
func NewRealtorRepository(db *gorm.DB) *GormRealtorRepository {
	return &GormRealtorRepository{db: db}
}

// WithContext 绑定上下文
func (r *GormRealtorRepository) WithContext(ctx context.Context) RealtorRepository {
	if ctx == nil {
		return r
	}
	return &GormRealtorRepository{db: r.db.WithContext(ctx)}
}

// GetByID 按ID获取经纪人
func (r *GormRealtorRepository) GetByID(id uint) (*models.Realtor, error) {
	if id == 0 {
		return nil, nil
	}
	var realtor models.Realtor
	if err := r.db.First(&realtor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &realtor, nil
}

// Create 创建经纪人
func (r *GormRealtorRepository) Create(realtor *models.Realtor) error {
	return r.db.Create(realtor).Error
}

// ListByIDs 批量查询经纪人
func (r *GormRealtorRepository) ListByIDs(ids []uint) ([]models.Realtor, error) {
	var rows []models.Realtor
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count 统计经纪人数量
func (r *GormRealtorRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Realtor{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CreateBankAccount 新增收款账户
func (r *GormRealtorRepository) CreateBankAccount(account *models.RealtorBankAccount) error {
	return r.db.Create(account).Error
}

// UpdateBankAccount 更新收款账户
func (r *GormRealtorRepository) UpdateBankAccount(account *models.RealtorBankAccount) error {
	return r.db.Save(account).Error
}

// GetDefaultBankAccount 获取默认收款账户，无默认时取最新一条；没有账户返回 nil
func (r *GormRealtorRepository) GetDefaultBankAccount(realtorID uint) (*models.RealtorBankAccount, error) {
	if realtorID == 0 {
		return nil, nil
	}
	var account models.RealtorBankAccount
	if err := r.db.Where("realtor_id = ?", realtorID).
		Order("is_default desc, id desc").
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ListBankAccounts 查询经纪人全部收款账户
func (r *GormRealtorRepository) ListBankAccounts(realtorID uint) ([]models.RealtorBankAccount, error) {
	var rows []models.RealtorBankAccount
	if err := r.db.Where("realtor_id = ?", realtorID).Order("is_default desc, id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
