// Package config loads bot configuration from a YAML file with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/kappu72/enbot-sub001/internal/database"
)

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token         string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID       int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	AllowedChatID int64  `yaml:"allowed_chat_id" envconfig:"TELEGRAM_ALLOWED_CHAT_ID"`
	RunMode       string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// SessionConfig controls session TTL and the background expiry sweep.
type SessionConfig struct {
	TTLMinutes           int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" envconfig:"SESSION_SWEEP_INTERVAL_MINUTES"`
}

// FlowConfig tunes the guided data-entry flows.
type FlowConfig struct {
	AmountCeiling  float64 `yaml:"amount_ceiling" envconfig:"FLOW_AMOUNT_CEILING"`
	PageSize       int     `yaml:"page_size" envconfig:"FLOW_PAGE_SIZE"`
	DescriptionMax int     `yaml:"description_max" envconfig:"FLOW_DESCRIPTION_MAX"`
}

// SheetsConfig points the optional spreadsheet mirror at its webhook.
// An empty URL disables mirroring.
type SheetsConfig struct {
	WebhookURL string `yaml:"webhook_url" envconfig:"SHEETS_WEBHOOK_URL"`
	Secret     string `yaml:"secret" envconfig:"SHEETS_SECRET"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram TelegramConfig  `yaml:"telegram"`
	Webhook  WebhookConfig   `yaml:"webhook"`
	Database database.Config `yaml:"database"`
	Session  SessionConfig   `yaml:"session"`
	Flow     FlowConfig      `yaml:"flow"`
	Sheets   SheetsConfig    `yaml:"sheets"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and applies defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Session.TTLMinutes <= 0 {
		cfg.Session.TTLMinutes = 30
	}
	if cfg.Session.SweepIntervalMinutes <= 0 {
		cfg.Session.SweepIntervalMinutes = 10
	}
	if cfg.Flow.AmountCeiling <= 0 {
		cfg.Flow.AmountCeiling = 100_000
	}
	if cfg.Flow.PageSize <= 0 {
		cfg.Flow.PageSize = 6
	}
	if cfg.Flow.DescriptionMax <= 0 {
		cfg.Flow.DescriptionMax = 120
	}
	return nil
}
