package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/mihaimyh/subrelay/pkg/telegram"
)

// DefaultMaxBodyBytes bounds webhook bodies. Adapty payloads are a few KB.
const DefaultMaxBodyBytes = 256 * 1024

// Notifier delivers a rendered message to the chat service.
// *telegram.Client implements it.
type Notifier interface {
	SendMessage(ctx context.Context, botToken string, msg telegram.Message) (map[string]interface{}, error)
}

// Secrets are the three shared secrets the handler needs at request time.
// Any of them may be empty: /health reports it and forwarding fails, but the
// handler keeps serving.
type Secrets struct {
	// WebhookAuthToken is compared against the bearer token on /webhook.
	WebhookAuthToken string

	// TelegramBotToken authenticates outbound sendMessage calls.
	TelegramBotToken string

	// TelegramChatID is the destination chat.
	TelegramChatID string
}

// String never prints secret values.
func (s Secrets) String() string {
	return fmt.Sprintf("Secrets{WebhookAuthToken:%t TelegramBotToken:%t TelegramChatID:%t}",
		s.WebhookAuthToken != "", s.TelegramBotToken != "", s.TelegramChatID != "")
}

// Config holds configuration for the webhook Handler
type Config struct {
	// Secrets are passed explicitly rather than read from the environment.
	Secrets Secrets

	// Notifier sends notifications. If nil, a telegram.Client with the
	// default API URL and no HTTP timeout is used.
	Notifier Notifier

	// Logger is used for structured logging (default: NoopLogger)
	Logger Logger

	// Metrics is optional; if nil, metrics are not recorded
	Metrics Metrics

	// Now returns the current time for /health (default: time.Now)
	Now func() time.Time

	// MaxBodyBytes limits webhook bodies (default: DefaultMaxBodyBytes)
	MaxBodyBytes int64
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max body bytes must not be negative, got %d", c.MaxBodyBytes)
	}
	return nil
}

// NewHandler creates a new webhook Handler with the given configuration
func NewHandler(config Config) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Notifier == nil {
		config.Notifier = telegram.NewClient(telegram.Config{})
	}
	if config.Logger == nil {
		config.Logger = &NoopLogger{}
	}
	if config.Metrics == nil {
		config.Metrics = &NoopMetrics{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	h := &Handler{config: config}
	h.router = h.routes()
	return h, nil
}
