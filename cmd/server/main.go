package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/realty-ledger/internal/app"
	"github.com/realty-ledger/internal/config"
	"github.com/realty-ledger/internal/logger"
	"github.com/realty-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	mode := flag.String("mode", app.ModeAll, "run mode: all | api | worker")
	configPath := flag.String("config", "", "config file path, defaults to ./config.yml")
	migrateOnly := flag.Bool("migrate", false, "run schema migration and exit")
	flag.Parse()

	fmt.Printf("realty-ledger starting (mode=%s)\n", *mode)

	cfg := config.LoadFrom(*configPath)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Database.LogLevel); err != nil {
		exit("database_init_failed", err)
	}
	if err := models.AutoMigrate(); err != nil {
		exit("database_migrate_failed", err)
	}
	if *migrateOnly {
		logger.Infow("database_migrated", "driver", cfg.Database.Driver)
		return
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    *mode,
	}); err != nil {
		exit("app_run_failed", err)
	}
}

func exit(event string, err error) {
	logger.Errorw(event, "error", err)
	logger.Sync()
	os.Exit(1)
}
