// Package config loads the subrelay server configuration from a YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mihaimyh/subrelay/pkg/relay"
	"github.com/mihaimyh/subrelay/pkg/telegram"
)

// Environment variables that override file values.
const (
	EnvWebhookAuthToken = "WEBHOOK_AUTH_TOKEN"
	EnvTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "TELEGRAM_CHAT_ID"
	EnvAddr             = "SUBRELAY_ADDR"
	EnvMetricsAddr      = "SUBRELAY_METRICS_ADDR"
	EnvLogLevel         = "SUBRELAY_LOG_LEVEL"
)

// Log formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config is the server configuration.
type Config struct {
	Server struct {
		Addr              string `yaml:"addr"`
		MetricsAddr       string `yaml:"metrics_addr"` // empty disables /metrics
		ReadHeaderTimeout int64  `yaml:"read_header_timeout_ms"`
		ShutdownTimeout   int64  `yaml:"shutdown_timeout_ms"`
		MaxBodyBytes      int64  `yaml:"max_body_bytes"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Telegram struct {
		APIBaseURL string `yaml:"api_base_url"`
	} `yaml:"telegram"`
	Secrets SecretsConfig `yaml:"secrets"`
}

// SecretsConfig holds the shared secrets. Missing values never fail loading;
// the relay reports them on /health.
type SecretsConfig struct {
	WebhookAuthToken string `yaml:"webhook_auth_token"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
}

// Load reads path, applies environment overrides and defaults, and
// validates the result. An empty or missing path yields defaults plus the
// environment.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg, lookup)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Secrets.WebhookAuthToken, EnvWebhookAuthToken)
	set(&cfg.Secrets.TelegramBotToken, EnvTelegramBotToken)
	set(&cfg.Secrets.TelegramChatID, EnvTelegramChatID)
	set(&cfg.Server.Addr, EnvAddr)
	set(&cfg.Server.MetricsAddr, EnvMetricsAddr)
	set(&cfg.Log.Level, EnvLogLevel)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = relay.DefaultMaxBodyBytes
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = LogFormatJSON
	}
	if cfg.Telegram.APIBaseURL == "" {
		cfg.Telegram.APIBaseURL = telegram.DefaultAPIBaseURL
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
}

// Validate checks values that would make the server unusable.
func (c *Config) Validate() error {
	if c.Server.ReadHeaderTimeout < 0 {
		return fmt.Errorf("server.read_header_timeout_ms must not be negative, got %d", c.Server.ReadHeaderTimeout)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout_ms must not be negative, got %d", c.Server.ShutdownTimeout)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative, got %d", c.Server.MaxBodyBytes)
	}
	if c.Log.Format != LogFormatJSON && c.Log.Format != LogFormatConsole {
		return fmt.Errorf("log.format must be %q or %q, got %q", LogFormatJSON, LogFormatConsole, c.Log.Format)
	}
	if c.Server.Addr != "" && c.Server.Addr == c.Server.MetricsAddr {
		return fmt.Errorf("server.metrics_addr must differ from server.addr (%s)", c.Server.Addr)
	}
	return nil
}

// ReadHeaderTimeoutDuration returns server.read_header_timeout_ms as a duration.
func (c *Config) ReadHeaderTimeoutDuration() time.Duration {
	return time.Duration(c.Server.ReadHeaderTimeout) * time.Millisecond
}

// ShutdownTimeoutDuration returns server.shutdown_timeout_ms as a duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Millisecond
}

// RelaySecrets converts the secrets for relay.Config.
func (c *Config) RelaySecrets() relay.Secrets {
	return relay.Secrets{
		WebhookAuthToken: c.Secrets.WebhookAuthToken,
		TelegramBotToken: c.Secrets.TelegramBotToken,
		TelegramChatID:   c.Secrets.TelegramChatID,
	}
}
