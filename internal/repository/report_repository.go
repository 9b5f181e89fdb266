package repository

import (
	"context"
	"strings"

	"github.com/realty-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository 账本报表聚合查询接口
// 说明：仅读取原始数据，分桶与排序在 service 层完成。
type ReportRepository interface {
	WithContext(ctx context.Context) ReportRepository
	ListCommissionStamps(statuses []string) ([]CommissionStampRow, error)
	ListRecentReceipts(limit int) ([]RecentReceiptRow, error)
	CountCommissionsByStatus() (map[string]int64, error)
	CountPayoutsByStatus() (map[string]int64, error)
	SumPayoutsByStatuses(statuses []string) (decimal.Decimal, error)
}

// CommissionStampRow 佣金金额与原始创建时间
// CreatedAt 保留驱动返回的原始值（time.Time / string / []byte），由调用方容错解析。
type CommissionStampRow struct {
	CommissionID uint
	RealtorID    uint
	Amount       decimal.Decimal
	CreatedAt    interface{}
}

// RecentReceiptRow 最近收据（附带经纪人与佣金信息）
type RecentReceiptRow struct {
	ReceiptID        uint            `gorm:"column:receipt_id"`
	RealtorID        uint            `gorm:"column:realtor_id"`
	RealtorName      string          `gorm:"column:realtor_name"`
	PropertyTitle    string          `gorm:"column:property_title"`
	SalePrice        decimal.Decimal `gorm:"column:sale_price"`
	ReceiptStatus    string          `gorm:"column:receipt_status"`
	CommissionAmount decimal.Decimal `gorm:"column:commission_amount"`
	CommissionStatus string          `gorm:"column:commission_status"`
	CreatedAt        interface{}     `gorm:"column:created_at"`
}

// GormReportRepository GORM 报表聚合实现
type GormReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建报表仓储
func NewReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// WithContext 绑定上下文
func (r *GormReportRepository) WithContext(ctx context.Context) ReportRepository {
	if ctx == nil {
		return r
	}
	return &GormReportRepository{db: r.db.WithContext(ctx)}
}

// ListCommissionStamps 按状态读取佣金金额与创建时间
func (r *GormReportRepository) ListCommissionStamps(statuses []string) ([]CommissionStampRow, error) {
	result := make([]CommissionStampRow, 0)
	if len(statuses) == 0 {
		return result, nil
	}
	rows, err := r.db.Model(&models.Commission{}).
		Select("id, realtor_id, amount, created_at").
		Where("status IN ?", statuses).
		Order("id asc").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var row CommissionStampRow
		var createdAt interface{}
		if err := rows.Scan(&row.CommissionID, &row.RealtorID, &row.Amount, &createdAt); err != nil {
			return nil, err
		}
		row.CreatedAt = createdAt
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListRecentReceipts 查询最近收据并关联经纪人名称与佣金
func (r *GormReportRepository) ListRecentReceipts(limit int) ([]RecentReceiptRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Table("receipts").
		Select(strings.Join([]string{
			"receipts.id AS receipt_id",
			"receipts.realtor_id AS realtor_id",
			"COALESCE(realtors.display_name, '') AS realtor_name",
			"receipts.property_title AS property_title",
			"receipts.sale_price AS sale_price",
			"receipts.status AS receipt_status",
			"COALESCE(commissions.amount, 0) AS commission_amount",
			"COALESCE(commissions.status, '') AS commission_status",
			"receipts.created_at AS created_at",
		}, ", ")).
		Joins("LEFT JOIN realtors ON realtors.id = receipts.realtor_id").
		Joins("LEFT JOIN commissions ON commissions.receipt_id = receipts.id").
		Order("receipts.created_at desc, receipts.id desc").
		Limit(limit).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]RecentReceiptRow, 0, limit)
	for rows.Next() {
		var row RecentReceiptRow
		var createdAt interface{}
		if err := rows.Scan(
			&row.ReceiptID,
			&row.RealtorID,
			&row.RealtorName,
			&row.PropertyTitle,
			&row.SalePrice,
			&row.ReceiptStatus,
			&row.CommissionAmount,
			&row.CommissionStatus,
			&createdAt,
		); err != nil {
			return nil, err
		}
		row.CreatedAt = createdAt
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type statusCountRow struct {
	Status string `gorm:"column:status"`
	Total  int64  `gorm:"column:total"`
}

// CountCommissionsByStatus 按状态统计佣金数量
func (r *GormReportRepository) CountCommissionsByStatus() (map[string]int64, error) {
	return r.countByStatus(&models.Commission{})
}

// CountPayoutsByStatus 按状态统计提现数量
func (r *GormReportRepository) CountPayoutsByStatus() (map[string]int64, error) {
	return r.countByStatus(&models.Payout{})
}

func (r *GormReportRepository) countByStatus(model interface{}) (map[string]int64, error) {
	var rows []statusCountRow
	if err := r.db.Model(model).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// SumPayoutsByStatuses 汇总指定状态的提现金额
func (r *GormReportRepository) SumPayoutsByStatuses(statuses []string) (decimal.Decimal, error) {
	if len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Payout{}).
		Where("status IN ?", statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}
