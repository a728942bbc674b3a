package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Fanout   FanoutConfig   `mapstructure:"fanout"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addrs      []string      `mapstructure:"addrs"`
	MasterName string        `mapstructure:"master_name"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// FanoutConfig 时间线扇出参数
type FanoutConfig struct {
	// MaxItems 广播类时间线（public/hashtag/group）的容量上限
	MaxItems int `mapstructure:"max_items"`
	// PersonalMaxItems home/list 时间线的容量上限，留出可见性过滤的余量
	PersonalMaxItems int           `mapstructure:"personal_max_items"`
	BroadcastCutoff  time.Duration `mapstructure:"broadcast_cutoff"`
	ActiveDuration   time.Duration `mapstructure:"active_duration"`
	FilterMultiplier int           `mapstructure:"filter_multiplier"`
	MergeBatchSize   int           `mapstructure:"merge_batch_size"`
	// MergeRate 每秒允许的合并批次数，0 表示不限速
	MergeRate    float64       `mapstructure:"merge_rate"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
	HydrationTTL time.Duration `mapstructure:"hydration_ttl"`
	// SubscriptionTTL 实时订阅标记的存活时间
	SubscriptionTTL time.Duration `mapstructure:"subscription_ttl"`
}

type JobsConfig struct {
	Workers           int           `mapstructure:"workers"`
	QueueSize         int           `mapstructure:"queue_size"`
	ClaimLimit        int           `mapstructure:"claim_limit"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RetryBase         time.Duration `mapstructure:"retry_base"`
	RetryMax          time.Duration `mapstructure:"retry_max"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Insecure    bool    `mapstructure:"insecure"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Load 读取配置文件与环境变量（APP_ 前缀）
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Redis.Addrs) == 1 && strings.Contains(cfg.Redis.Addrs[0], ",") {
		cfg.Redis.Addrs = strings.Split(cfg.Redis.Addrs[0], ",")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=postgres port=5434 sslmode=disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addrs", []string{"localhost:6380"})
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("fanout.max_items", 400)
	v.SetDefault("fanout.personal_max_items", 800)
	v.SetDefault("fanout.broadcast_cutoff", 14*24*time.Hour)
	v.SetDefault("fanout.active_duration", 14*24*time.Hour)
	v.SetDefault("fanout.filter_multiplier", 4)
	v.SetDefault("fanout.merge_batch_size", 100)
	v.SetDefault("fanout.merge_rate", 0)
	v.SetDefault("fanout.lock_ttl", 5*time.Minute)
	v.SetDefault("fanout.hydration_ttl", 10*time.Minute)
	v.SetDefault("fanout.subscription_ttl", time.Minute)

	v.SetDefault("jobs.workers", 4)
	v.SetDefault("jobs.queue_size", 1024)
	v.SetDefault("jobs.claim_limit", 128)
	v.SetDefault("jobs.poll_interval", 50*time.Millisecond)
	v.SetDefault("jobs.max_attempts", 10)
	v.SetDefault("jobs.retry_base", time.Second)
	v.SetDefault("jobs.retry_max", 10*time.Minute)
	v.SetDefault("jobs.visibility_timeout", 5*time.Minute)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "timeline-fanout")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("sentry.environment", "development")
}
