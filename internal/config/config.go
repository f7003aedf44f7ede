package config

import (
	"bytes"
	_ "embed"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig      `mapstructure:"http"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Quota      QuotaConfig     `mapstructure:"quota"`
	Capture    CaptureConfig   `mapstructure:"capture"`
	Replay     ReplayConfig    `mapstructure:"replay"`
	Log        LogConfig       `mapstructure:"log"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	CapturedTopic  string   `mapstructure:"captured_topic"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

// RateLimitConfig carries the per-layer window sizes. All windows are one
// minute; values are requests per window.
type RateLimitConfig struct {
	SlugPerMinute int `mapstructure:"slug_per_minute"`
	IPPerMinute   int `mapstructure:"ip_per_minute"`
	FreePerMinute int `mapstructure:"free_per_minute"`
	ProPerMinute  int `mapstructure:"pro_per_minute"`
}

// QuotaConfig carries the monthly request ceilings. Zero means unlimited.
type QuotaConfig struct {
	FreeMonthly int64 `mapstructure:"free_monthly"`
	ProMonthly  int64 `mapstructure:"pro_monthly"`
}

type CaptureConfig struct {
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

type ReplayConfig struct {
	TimeoutMs     int `mapstructure:"timeout_ms"`
	FailThreshold int `mapstructure:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (HOOKGW_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (HOOKGW_*)
	v.SetEnvPrefix("HOOKGW")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
