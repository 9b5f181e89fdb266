package app

import (
	"errors"
	"time"

	"github.com/realty-ledger/internal/config"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/provider"
	"github.com/realty-ledger/internal/router"
	"github.com/realty-ledger/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateMode(mode); err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		httpService := NewHTTPService(cfg.Server, engine)
		services = append(services, httpService, NewDispatcherService(container.Dispatcher))
	}

	auditInterval := time.Duration(cfg.Ledger.AuditIntervalSeconds) * time.Second

	// 初始化 Worker 服务
	switch {
	case mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled):
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer, auditInterval)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	case mode == ModeAll:
		logger.Infow("app_queue_disabled", "fallback", "local_balance_audit")
		services = append(services, worker.NewAuditService(container.BalanceService, auditInterval))
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Host+":"+opts.Config.Server.Port,
		"mode", opts.Mode,
		"redis", opts.Config.Redis.Enabled,
		"queue", opts.Config.Queue.Enabled,
	)
	return RunWithOptions(runner, opts)
}
