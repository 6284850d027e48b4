package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihaimyh/subrelay/pkg/relay"
	"github.com/mihaimyh/subrelay/pkg/telegram"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.MetricsAddr)
	assert.Equal(t, 5*time.Second, cfg.ReadHeaderTimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, int64(relay.DefaultMaxBodyBytes), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, LogFormatJSON, cfg.Log.Format)
	assert.Equal(t, telegram.DefaultAPIBaseURL, cfg.Telegram.APIBaseURL)
	assert.Equal(t, relay.Secrets{}, cfg.RelaySecrets())
}

func TestLoad_MissingFileIsAllowed(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  metrics_addr: ":9100"
  read_header_timeout_ms: 2000
  shutdown_timeout_ms: 3000
  max_body_bytes: 4096
log:
  level: DEBUG
  format: console
telegram:
  api_base_url: http://localhost:8081
secrets:
  webhook_auth_token: file-token
  telegram_bot_token: file-bot
  telegram_chat_id: "-100"
`)
	cfg, err := load(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, ":9100", cfg.Server.MetricsAddr)
	assert.Equal(t, 2*time.Second, cfg.ReadHeaderTimeoutDuration())
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, int64(4096), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, LogFormatConsole, cfg.Log.Format)
	assert.Equal(t, "http://localhost:8081", cfg.Telegram.APIBaseURL)
	assert.Equal(t, relay.Secrets{
		WebhookAuthToken: "file-token",
		TelegramBotToken: "file-bot",
		TelegramChatID:   "-100",
	}, cfg.RelaySecrets())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
secrets:
  webhook_auth_token: file-token
  telegram_chat_id: "-100"
`)
	cfg, err := load(path, envMap(map[string]string{
		EnvWebhookAuthToken: "env-token",
		EnvTelegramBotToken: "env-bot",
		EnvTelegramChatID:   "",
		EnvAddr:             ":7000",
		EnvMetricsAddr:      ":7100",
		EnvLogLevel:         "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, ":7100", cfg.Server.MetricsAddr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env-token", cfg.Secrets.WebhookAuthToken)
	assert.Equal(t, "env-bot", cfg.Secrets.TelegramBotToken)
	assert.Equal(t, "-100", cfg.Secrets.TelegramChatID, "empty env value keeps file value")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")
	_, err := load(path, noEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"negative body limit", "server:\n  max_body_bytes: -1\n", "max_body_bytes"},
		{"negative shutdown", "server:\n  shutdown_timeout_ms: -5\n", "shutdown_timeout_ms"},
		{"unknown format", "log:\n  format: xml\n", "log.format"},
		{"same listeners", "server:\n  addr: \":8080\"\n  metrics_addr: \":8080\"\n", "metrics_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeConfig(t, tt.body), noEnv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_UsesProcessEnvironment(t *testing.T) {
	t.Setenv(EnvWebhookAuthToken, "process-token")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "process-token", cfg.Secrets.WebhookAuthToken)
}
