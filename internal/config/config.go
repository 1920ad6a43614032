package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type EmailConfig struct {
	ResendKey string `yaml:"resend_api_key"`
	From      string `yaml:"from"`
}

type ProviderConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
	// Avatar provider only.
	DefaultAvatarID string `yaml:"default_avatar_id"`
}

type ProvidersConfig struct {
	DID    ProviderConfig `yaml:"did"`
	Heygen ProviderConfig `yaml:"heygen"`
}

type ShopifyConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
	VerifyHMAC    bool   `yaml:"verify_hmac"`
}

type AlertsConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

type RedisConfig struct {
	URL              string        `yaml:"url"`
	Password         string        `yaml:"password"`
	DB               int           `yaml:"db"`
	SnapshotKey      string        `yaml:"snapshot_key"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Admin     AdminConfig     `yaml:"admin"`
	Email     EmailConfig     `yaml:"email"`
	Providers ProvidersConfig `yaml:"providers"`
	Shopify   ShopifyConfig   `yaml:"shopify"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8081
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Providers.DID.PollInterval <= 0 {
		cfg.Providers.DID.PollInterval = 5 * time.Second
	}
	if cfg.Providers.DID.MaxWait <= 0 {
		cfg.Providers.DID.MaxWait = 600 * time.Second
	}
	if cfg.Providers.Heygen.PollInterval <= 0 {
		cfg.Providers.Heygen.PollInterval = 5 * time.Second
	}
	if cfg.Providers.Heygen.MaxWait <= 0 {
		cfg.Providers.Heygen.MaxWait = 1200 * time.Second
	}
	if cfg.Redis.SnapshotKey == "" {
		cfg.Redis.SnapshotKey = "eccomi:jobs:snapshot"
	}
	if cfg.Redis.SnapshotInterval <= 0 {
		cfg.Redis.SnapshotInterval = time.Minute
	}

	// Minimal validation. Provider keys may be absent: dev mode substitutes
	// noop providers and a missing key surfaces as a config error at submit.
	if !dev && cfg.Admin.JWTSecret == "" && cfg.Admin.APIKey != "" {
		return nil, fmt.Errorf("admin.jwt_secret is required when admin.api_key is set")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
