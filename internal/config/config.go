package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process-wide configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Tx       TxConfig       `mapstructure:"tx"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig selects the gorm dialector. Driver is "mysql" or "sqlite".
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// TxConfig bounds every multi-entity mutation.
type TxConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	LockWait  time.Duration `mapstructure:"lock_wait"`
	Isolation string        `mapstructure:"isolation"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	LedgerEvents string `mapstructure:"ledger_events"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenCookie string `mapstructure:"token_cookie"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type BusinessConfig struct {
	PhoneRegion   string        `mapstructure:"phone_region"`
	MaxRetryCount int           `mapstructure:"max_retry_count"`
	OutboxBatch   int           `mapstructure:"outbox_batch"`
	OutboxPoll    time.Duration `mapstructure:"outbox_poll"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.path", "data/bizledger.db")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.log_level", "error")
	v.SetDefault("tx.timeout", 30*time.Second)
	v.SetDefault("tx.lock_wait", 15*time.Second)
	v.SetDefault("tx.isolation", "read_committed")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.cache_ttl", 5*time.Minute)
	v.SetDefault("kafka.topic.ledger_events", "ledger-events")
	v.SetDefault("auth.token_cookie", "token")
	v.SetDefault("log.level", "info")
	v.SetDefault("business.phone_region", "BD")
	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.outbox_batch", 100)
	v.SetDefault("business.outbox_poll", time.Second)
}

// Load reads the yaml file at configPath. A .env file, when present, is loaded
// first and BIZLEDGER_* variables override file values (tx.timeout -> BIZLEDGER_TX_TIMEOUT).
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BIZLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	return cfg, nil
}

// Default returns the built-in defaults without reading any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}
