package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/realty-ledger/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release

	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"`    // 数据库驱动（sqlite/postgres）
	DSN      string             `mapstructure:"dsn"`       // 数据库连接串
	LogLevel string             `mapstructure:"log_level"` // gorm 日志级别
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// LedgerConfig 账本配置
type LedgerConfig struct {
	LockTTLSeconds          int `mapstructure:"lock_ttl_seconds"`
	LockTries               int `mapstructure:"lock_tries"`
	LockRetryDelayMS        int `mapstructure:"lock_retry_delay_ms"`
	StoreTimeoutSeconds     int `mapstructure:"store_timeout_seconds"`
	TopRealtorsDefaultLimit int `mapstructure:"top_realtors_default_limit"`
	ReportCacheSeconds      int `mapstructure:"report_cache_seconds"`
	AuditIntervalSeconds    int `mapstructure:"audit_interval_seconds"`
	PayoutRateLimitWindow   int `mapstructure:"payout_rate_limit_window_seconds"`
	PayoutRateLimitMax      int `mapstructure:"payout_rate_limit_max"`
}

// StoreTimeout 单次账本写操作超时时间
func (c LedgerConfig) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

// NotifyConfig 通知分发配置
type NotifyConfig struct {
	BufferSize          int `mapstructure:"buffer_size"`
	Workers             int `mapstructure:"workers"`
	MaxAttempts         int `mapstructure:"max_attempts"`
	BaseBackoffMS       int `mapstructure:"base_backoff_ms"`
	AttemptTimeoutMS    int `mapstructure:"attempt_timeout_ms"`
	DrainTimeoutSeconds int `mapstructure:"drain_timeout_seconds"`
	QueueMaxRetry       int `mapstructure:"queue_max_retry"`
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "", "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if c.Notify.BufferSize <= 0 {
		return errors.New("notify.buffer_size must be positive")
	}
	if c.Notify.Workers <= 0 {
		return errors.New("notify.workers must be positive")
	}
	if c.Notify.MaxAttempts <= 0 {
		return errors.New("notify.max_attempts must be positive")
	}
	if c.Ledger.StoreTimeoutSeconds < 0 {
		return errors.New("ledger.store_timeout_seconds must not be negative")
	}
	return nil
}

// SetDefaults 注册全部默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stdout", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/ledger.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "rl")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
		"Idempotency-Key",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("ledger.lock_ttl_seconds", 10)
	v.SetDefault("ledger.lock_tries", 32)
	v.SetDefault("ledger.lock_retry_delay_ms", 50)
	v.SetDefault("ledger.store_timeout_seconds", 5)
	v.SetDefault("ledger.top_realtors_default_limit", 10)
	v.SetDefault("ledger.report_cache_seconds", 30)
	v.SetDefault("ledger.audit_interval_seconds", 300)
	v.SetDefault("ledger.payout_rate_limit_window_seconds", 60)
	v.SetDefault("ledger.payout_rate_limit_max", 10)
	v.SetDefault("notify.buffer_size", 256)
	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.max_attempts", 3)
	v.SetDefault("notify.base_backoff_ms", 200)
	v.SetDefault("notify.attempt_timeout_ms", 3000)
	v.SetDefault("notify.drain_timeout_seconds", 5)
	v.SetDefault("notify.queue_max_retry", 3)
}

func envKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// Load 从 .env 与 config.yml 加载配置
func Load() *Config {
	return LoadFrom("")
}

// LoadFrom 加载配置，path 为空时按默认目录查找 config.yml
func LoadFrom(path string) *Config {
	if err := godotenv.Load(); err == nil {
		logger.Infow("config_dotenv_loaded", "file", ".env")
	}

	v := viper.New()
	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("../")
		v.AddConfigPath("./etc")
	}

	SetDefaults(v)

	// 环境变量支持：server.port -> SERVER_PORT
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer())

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorw("config_validate_failed", "error", err)
		panic(fmt.Errorf("配置校验失败: %w", err))
	}

	return &cfg
}
