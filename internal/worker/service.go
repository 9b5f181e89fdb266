package worker

import (
	"context"
	"errors"
	"time"

	"github.com/realty-ledger/internal/config"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultAuditInterval = 5 * time.Minute
)

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	auditInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer, auditInterval time.Duration) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	if auditInterval <= 0 {
		auditInterval = defaultAuditInterval
	}
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		auditInterval: auditInterval,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.BalanceService != nil {
		go runBalanceAuditLoop(ctx, s.consumer.BalanceService, s.auditInterval)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// balanceAuditor 周期性核对余额
type balanceAuditor interface {
	AuditBalances(ctx context.Context) (int, error)
}

func runBalanceAuditLoop(ctx context.Context, auditor balanceAuditor, interval time.Duration) {
	if auditor == nil {
		return
	}
	runOnce := func() {
		negative, err := auditor.AuditBalances(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Named("worker").Warnw("worker_balance_audit_failed", "error", err)
			}
			return
		}
		logger.Named("worker").Debugw("worker_balance_audit_done", "negative_ledgers", negative)
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// AuditService 未启用队列时单独运行的余额巡检
type AuditService struct {
	auditor  balanceAuditor
	interval time.Duration
}

// NewAuditService 创建余额巡检服务
func NewAuditService(auditor balanceAuditor, interval time.Duration) *AuditService {
	if interval <= 0 {
		interval = defaultAuditInterval
	}
	return &AuditService{auditor: auditor, interval: interval}
}

// Name 服务名称
func (s *AuditService) Name() string {
	return "balance-audit"
}

// Start 阻塞运行直到 ctx 结束
func (s *AuditService) Start(ctx context.Context) error {
	if s == nil || s.auditor == nil {
		return errors.New("balance auditor not initialized")
	}
	runBalanceAuditLoop(ctx, s.auditor, s.interval)
	return nil
}

// Stop 停止服务
func (s *AuditService) Stop(context.Context) error {
	return nil
}
