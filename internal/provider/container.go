package provider

import (
	"context"
	"time"

	"github.com/realty-ledger/internal/cache"
	"github.com/realty-ledger/internal/config"
	"github.com/realty-ledger/internal/lock"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/models"
	"github.com/realty-ledger/internal/notify"
	"github.com/realty-ledger/internal/queue"
	"github.com/realty-ledger/internal/repository"
	"github.com/realty-ledger/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Locker      lock.Locker
	Dispatcher  *notify.Dispatcher

	// Repositories
	LedgerRepo       repository.LedgerRepository
	RealtorRepo      repository.RealtorRepository
	NotificationRepo repository.NotificationRepository
	ReportRepo       repository.ReportRepository

	// Services
	BalanceService      *service.BalanceService
	PayoutService       *service.PayoutService
	CommissionService   *service.CommissionService
	ReportService       *service.ReportService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(context.Background(), &cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err, "fallback", "cache_disabled")
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}
	return NewContainerWithDB(cfg, models.DB, queueClient)
}

// NewContainerWithDB 使用指定数据库连接组装容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化锁与通知通道
	c.initLocker()
	c.initDispatcher()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.RealtorRepo = repository.NewRealtorRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.ReportRepo = repository.NewReportRepository(db)
}

func (c *Container) initLocker() {
	if !cache.Enabled() {
		c.Locker = lock.NewLocalLocker()
		return
	}
	ledgerCfg := c.Config.Ledger
	locker, err := lock.NewRedisLocker(cache.Client(), lock.RedisOptions{
		Prefix:     cache.Prefix(),
		Expiry:     time.Duration(ledgerCfg.LockTTLSeconds) * time.Second,
		Tries:      ledgerCfg.LockTries,
		RetryDelay: time.Duration(ledgerCfg.LockRetryDelayMS) * time.Millisecond,
	})
	if err != nil {
		logger.Warnw("provider_init_redis_locker_failed", "error", err, "fallback", "local")
		c.Locker = lock.NewLocalLocker()
		return
	}
	c.Locker = locker
}

func (c *Container) initDispatcher() {
	notifyCfg := c.Config.Notify
	c.NotificationService = service.NewNotificationService(c.NotificationRepo)

	// 队列可用时交给 worker 落库，否则在本进程内直接写入
	var emitter notify.Emitter = c.NotificationService
	if c.QueueClient.Enabled() {
		emitter = notify.NewQueueEmitter(c.QueueClient, notifyCfg.QueueMaxRetry)
	}
	c.Dispatcher = notify.NewDispatcher(emitter, notify.Options{
		BufferSize:     notifyCfg.BufferSize,
		Workers:        notifyCfg.Workers,
		MaxAttempts:    notifyCfg.MaxAttempts,
		BaseBackoff:    time.Duration(notifyCfg.BaseBackoffMS) * time.Millisecond,
		AttemptTimeout: time.Duration(notifyCfg.AttemptTimeoutMS) * time.Millisecond,
		DrainTimeout:   time.Duration(notifyCfg.DrainTimeoutSeconds) * time.Second,
	})
}

func (c *Container) initServices() {
	ledgerCfg := c.Config.Ledger
	c.BalanceService = service.NewBalanceService(c.LedgerRepo)
	c.PayoutService = service.NewPayoutService(c.LedgerRepo, c.RealtorRepo, c.Locker, c.Dispatcher, ledgerCfg.StoreTimeout())
	c.CommissionService = service.NewCommissionService(c.LedgerRepo, c.Locker)
	c.ReportService = service.NewReportService(
		c.ReportRepo,
		c.LedgerRepo,
		c.RealtorRepo,
		ledgerCfg.TopRealtorsDefaultLimit,
		time.Duration(ledgerCfg.ReportCacheSeconds)*time.Second,
	)
}
