package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/realty-ledger/internal/cache"
	"github.com/realty-ledger/internal/constants"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTopRealtorsLimit    = 10
	defaultRecentReceiptsLimit = 10
	maxReportLimit             = 100
	minReportYear              = 1970
	maxReportYear              = 9999
)

// ledgerTimeLayouts 容错解析的时间格式，覆盖 postgres 与 sqlite 文本存储
var ledgerTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReportService 账本报表聚合
type ReportService struct {
	reportRepo   repository.ReportRepository
	ledgerRepo   repository.LedgerRepository
	realtorRepo  repository.RealtorRepository
	defaultLimit int
	cacheTTL     time.Duration
}

// RealtorTotal 经纪人收益排行项
type RealtorTotal struct {
	RealtorID   uint         `json:"realtor_id"`
	DisplayName string       `json:"display_name"`
	Total       models.Money `json:"total"`
}

// ReceiptSummary 最近收据摘要
type ReceiptSummary struct {
	ReceiptID        uint         `json:"receipt_id"`
	RealtorID        uint         `json:"realtor_id"`
	RealtorName      string       `json:"realtor_name"`
	PropertyTitle    string       `json:"property_title"`
	SalePrice        models.Money `json:"sale_price"`
	Status           string       `json:"status"`
	CommissionAmount models.Money `json:"commission_amount"`
	CommissionStatus string       `json:"commission_status,omitempty"`
	CreatedAt        *time.Time   `json:"created_at,omitempty"`
}

// LedgerMetrics 后台概览计数
type LedgerMetrics struct {
	Realtors            int64            `json:"realtors"`
	CommissionsByStatus map[string]int64 `json:"commissions_by_status"`
	PayoutsByStatus     map[string]int64 `json:"payouts_by_status"`
	PendingPayoutAmount models.Money     `json:"pending_payout_amount"`
}

// TransactionEntry 经纪人流水（佣金入账与提现出账合并）
type TransactionEntry struct {
	Kind         string       `json:"kind"`
	Direction    string       `json:"direction"`
	CommissionID uint         `json:"commission_id,omitempty"`
	RequestNo    string       `json:"request_no,omitempty"`
	Amount       models.Money `json:"amount"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`

	sortID uint
}

// NewReportService 创建报表服务
func NewReportService(
	reportRepo repository.ReportRepository,
	ledgerRepo repository.LedgerRepository,
	realtorRepo repository.RealtorRepository,
	defaultLimit int,
	cacheTTL time.Duration,
) *ReportService {
	if defaultLimit <= 0 {
		defaultLimit = defaultTopRealtorsLimit
	}
	return &ReportService{
		reportRepo:   reportRepo,
		ledgerRepo:   ledgerRepo,
		realtorRepo:  realtorRepo,
		defaultLimit: defaultLimit,
		cacheTTL:     cacheTTL,
	}
}

// MonthlyTotals 按 UTC 月份汇总指定年份的佣金，时间无法解析的记录跳过
func (s *ReportService) MonthlyTotals(ctx context.Context, year int, statuses []string) ([12]models.Money, error) {
	var buckets [12]models.Money
	for i := range buckets {
		buckets[i] = models.ZeroMoney()
	}
	if err := validateReportYear(year); err != nil {
		return buckets, err
	}
	statuses, err := normalizeCommissionStatuses(statuses)
	if err != nil {
		return buckets, err
	}

	cacheKey := fmt.Sprintf("%s:%d:%s", constants.CacheKeyReportMonthly, year, strings.Join(statuses, ","))
	return cache.RememberScoped(ctx, constants.CacheScopeReport, cacheKey, s.cacheTTL, func(ctx context.Context) ([12]models.Money, error) {
		rows, err := s.reportRepo.WithContext(ctx).ListCommissionStamps(statuses)
		if err != nil {
			return buckets, wrapStoreError("list commission stamps", err)
		}
		sums := make([]decimal.Decimal, 12)
		for _, row := range rows {
			createdAt, ok := parseLedgerTime(row.CreatedAt)
			if !ok {
				logger.Debugw("report_commission_time_unparseable", "commission_id", row.CommissionID, "raw", row.CreatedAt)
				continue
			}
			if createdAt.Year() != year {
				continue
			}
			month := int(createdAt.Month()) - 1
			sums[month] = sums[month].Add(row.Amount)
		}
		for i, sum := range sums {
			buckets[i] = models.NewMoneyFromDecimal(sum)
		}
		return buckets, nil
	})
}

// TopRealtors 按年份统计经纪人佣金排行：总额降序，相同时按经纪人ID升序
func (s *ReportService) TopRealtors(ctx context.Context, year int, statuses []string, limit int) ([]RealtorTotal, error) {
	if err := validateReportYear(year); err != nil {
		return nil, err
	}
	statuses, err := normalizeCommissionStatuses(statuses)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxReportLimit {
		limit = maxReportLimit
	}

	cacheKey := fmt.Sprintf("%s:%d:%s:%d", constants.CacheKeyReportTopRealtors, year, strings.Join(statuses, ","), limit)
	return cache.RememberScoped(ctx, constants.CacheScopeReport, cacheKey, s.cacheTTL, func(ctx context.Context) ([]RealtorTotal, error) {
		rows, err := s.reportRepo.WithContext(ctx).ListCommissionStamps(statuses)
		if err != nil {
			return nil, wrapStoreError("list commission stamps", err)
		}
		totals := make(map[uint]decimal.Decimal)
		for _, row := range rows {
			createdAt, ok := parseLedgerTime(row.CreatedAt)
			if !ok || createdAt.Year() != year {
				continue
			}
			totals[row.RealtorID] = totals[row.RealtorID].Add(row.Amount)
		}

		ranked := rankRealtorTotals(totals, limit)
		if err := s.attachRealtorNames(ctx, ranked); err != nil {
			return nil, err
		}
		return ranked, nil
	})
}

// InvalidateReportCache 账本变更提交后切换报表缓存分代，再清理旧分代的 key
func InvalidateReportCache(ctx context.Context) {
	if err := cache.BumpGeneration(ctx, constants.CacheScopeReport); err != nil {
		logger.Warnw("report_cache_invalidate_failed", "error", err)
	}
	if err := cache.DelByPrefix(ctx, constants.CacheKeyReportPrefix); err != nil {
		logger.Warnw("report_cache_cleanup_failed", "error", err)
	}
}

// rankRealtorTotals 排序并截断
func rankRealtorTotals(totals map[uint]decimal.Decimal, limit int) []RealtorTotal {
	ranked := make([]RealtorTotal, 0, len(totals))
	for realtorID, total := range totals {
		ranked = append(ranked, RealtorTotal{
			RealtorID: realtorID,
			Total:     models.NewMoneyFromDecimal(total),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if cmp := ranked[i].Total.Cmp(ranked[j].Total.Decimal); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].RealtorID < ranked[j].RealtorID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func (s *ReportService) attachRealtorNames(ctx context.Context, ranked []RealtorTotal) error {
	if s.realtorRepo == nil || len(ranked) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(ranked))
	for _, item := range ranked {
		ids = append(ids, item.RealtorID)
	}
	realtors, err := s.realtorRepo.WithContext(ctx).ListByIDs(ids)
	if err != nil {
		return wrapStoreError("list realtors", err)
	}
	names := make(map[uint]string, len(realtors))
	for _, realtor := range realtors {
		names[realtor.ID] = realtor.DisplayName
	}
	for i := range ranked {
		ranked[i].DisplayName = names[ranked[i].RealtorID]
	}
	return nil
}

// RecentReceiptsEnriched 最近收据，附带经纪人名称与佣金金额
func (s *ReportService) RecentReceiptsEnriched(ctx context.Context, limit int) ([]ReceiptSummary, error) {
	if limit <= 0 {
		limit = defaultRecentReceiptsLimit
	}
	if limit > maxReportLimit {
		limit = maxReportLimit
	}
	rows, err := s.reportRepo.WithContext(ctx).ListRecentReceipts(limit)
	if err != nil {
		return nil, wrapStoreError("list recent receipts", err)
	}
	result := make([]ReceiptSummary, 0, len(rows))
	for _, row := range rows {
		item := ReceiptSummary{
			ReceiptID:        row.ReceiptID,
			RealtorID:        row.RealtorID,
			RealtorName:      row.RealtorName,
			PropertyTitle:    row.PropertyTitle,
			SalePrice:        models.NewMoneyFromDecimal(row.SalePrice),
			Status:           row.ReceiptStatus,
			CommissionAmount: models.NewMoneyFromDecimal(row.CommissionAmount),
			CommissionStatus: row.CommissionStatus,
		}
		if createdAt, ok := parseLedgerTime(row.CreatedAt); ok {
			item.CreatedAt = &createdAt
		}
		result = append(result, item)
	}
	return result, nil
}

// MetricCounts 后台概览计数，各表统计并发执行
func (s *ReportService) MetricCounts(ctx context.Context) (*LedgerMetrics, error) {
	return cache.RememberScoped(ctx, constants.CacheScopeReport, constants.CacheKeyReportMetrics, s.cacheTTL, s.loadMetricCounts)
}

func (s *ReportService) loadMetricCounts(ctx context.Context) (*LedgerMetrics, error) {
	metrics := &LedgerMetrics{
		CommissionsByStatus: map[string]int64{},
		PayoutsByStatus:     map[string]int64{},
		PendingPayoutAmount: models.ZeroMoney(),
	}
	group, gctx := errgroup.WithContext(ctx)
	reportRepo := s.reportRepo.WithContext(gctx)

	if s.realtorRepo != nil {
		realtorRepo := s.realtorRepo.WithContext(gctx)
		group.Go(func() error {
			count, err := realtorRepo.Count()
			if err != nil {
				return err
			}
			metrics.Realtors = count
			return nil
		})
	}
	group.Go(func() error {
		counts, err := reportRepo.CountCommissionsByStatus()
		if err != nil {
			return err
		}
		metrics.CommissionsByStatus = counts
		return nil
	})
	group.Go(func() error {
		counts, err := reportRepo.CountPayoutsByStatus()
		if err != nil {
			return err
		}
		metrics.PayoutsByStatus = counts
		return nil
	})
	group.Go(func() error {
		sum, err := reportRepo.SumPayoutsByStatuses(ReservedPayoutStatuses())
		if err != nil {
			return err
		}
		metrics.PendingPayoutAmount = models.NewMoneyFromDecimal(sum)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, wrapStoreError("metric counts", err)
	}
	return metrics, nil
}

// GetTransactions 经纪人流水：佣金与提现合并后按创建时间倒序分页
func (s *ReportService) GetTransactions(ctx context.Context, realtorID uint, page, pageSize int) ([]TransactionEntry, int64, error) {
	if realtorID == 0 {
		return nil, 0, ErrRealtorInvalid
	}
	repo := s.ledgerRepo.WithContext(ctx)
	commissions, err := repo.ListCommissionsByRealtor(realtorID)
	if err != nil {
		return nil, 0, wrapStoreError("list commissions", err)
	}
	payouts, err := repo.ListPayoutsByRealtor(realtorID)
	if err != nil {
		return nil, 0, wrapStoreError("list payouts", err)
	}

	entries := MergeTransactions(commissions, payouts)
	total := len(entries)
	start, end := repository.PaginateBounds(total, page, pageSize)
	return entries[start:end], int64(total), nil
}

// MergeTransactions 合并佣金与提现记录，按创建时间倒序，时间相同按类型、ID 倒序
func MergeTransactions(commissions []models.Commission, payouts []models.Payout) []TransactionEntry {
	entries := make([]TransactionEntry, 0, len(commissions)+len(payouts))
	for _, item := range commissions {
		entries = append(entries, TransactionEntry{
			Kind:         constants.TransactionKindCommission,
			Direction:    constants.TransactionDirectionCredit,
			CommissionID: item.ID,
			Amount:       item.Amount,
			Status:       item.Status,
			CreatedAt:    item.CreatedAt,
			sortID:       item.ID,
		})
	}
	for _, item := range payouts {
		entries = append(entries, TransactionEntry{
			Kind:      constants.TransactionKindPayout,
			Direction: constants.TransactionDirectionDebit,
			RequestNo: item.RequestNo,
			Amount:    item.Amount,
			Status:    item.Status,
			CreatedAt: item.CreatedAt,
			sortID:    item.ID,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind < entries[j].Kind
		}
		return entries[i].sortID > entries[j].sortID
	})
	return entries
}

// parseLedgerTime 容错解析数据库返回的时间值，统一转为 UTC
func parseLedgerTime(raw interface{}) (time.Time, bool) {
	switch value := raw.(type) {
	case time.Time:
		if value.IsZero() {
			return time.Time{}, false
		}
		return value.UTC(), true
	case *time.Time:
		if value == nil || value.IsZero() {
			return time.Time{}, false
		}
		return value.UTC(), true
	case string:
		return parseLedgerTimeString(value)
	case []byte:
		return parseLedgerTimeString(string(value))
	case int64:
		if value <= 0 {
			return time.Time{}, false
		}
		return time.Unix(value, 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

func parseLedgerTimeString(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range ledgerTimeLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), true
		}
	}
	if unix, err := strconv.ParseInt(trimmed, 10, 64); err == nil && unix > 0 {
		return time.Unix(unix, 0).UTC(), true
	}
	return time.Time{}, false
}

func validateReportYear(year int) error {
	if year < minReportYear || year > maxReportYear {
		return ErrInvalidReportYear
	}
	return nil
}

// normalizeCommissionStatuses 过滤状态参数，为空时默认取计入收益的状态
func normalizeCommissionStatuses(statuses []string) ([]string, error) {
	seen := make(map[string]struct{}, len(statuses))
	result := make([]string, 0, len(statuses))
	for _, raw := range statuses {
		status := normalizeStatus(raw)
		if status == "" {
			continue
		}
		if !IsCommissionStatus(status) {
			return nil, ErrInvalidStatus
		}
		if _, ok := seen[status]; ok {
			continue
		}
		seen[status] = struct{}{}
		result = append(result, status)
	}
	if len(result) == 0 {
		return EarningCommissionStatuses(), nil
	}
	sort.Strings(result)
	return result, nil
}
