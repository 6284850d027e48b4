// Package telegram sends notifications through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAPIBaseURL is the public Bot API endpoint.
	DefaultAPIBaseURL = "https://api.telegram.org"
	// ParseModeHTML enables the HTML subset understood by Telegram.
	ParseModeHTML = "HTML"

	sendMessageEndpoint = "sendMessage"
)

// Message is the sendMessage payload.
type Message struct {
	ChatID                string `json:"chat_id,omitempty"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// NewHTMLMessage builds the payload used for every notification.
func NewHTMLMessage(chatID, text string) Message {
	return Message{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             ParseModeHTML,
		DisableWebPagePreview: true,
	}
}

// DeliveryError is returned when the Bot API answers with a non-2xx status.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return "Telegram API error: " + e.Body
}

// Metrics records outbound API calls. All methods must be safe for
// concurrent use.
type Metrics interface {
	// RecordAPICall records a call; status is the HTTP status code or "error".
	RecordAPICall(endpoint, status string)
	RecordAPICallDuration(endpoint string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordAPICall(_, _ string)                       {}
func (noopMetrics) RecordAPICallDuration(_ string, _ time.Duration) {}

// Config configures a Client.
type Config struct {
	// BaseURL overrides DefaultAPIBaseURL, mostly for tests.
	BaseURL string

	// HTTPClient is used for API calls. If nil, a client without a timeout
	// is used so a call lasts as long as the transport allows.
	HTTPClient *http.Client

	// Metrics is optional.
	Metrics Metrics
}

// Client performs single best-effort sendMessage calls. It holds no
// credentials; the bot token is passed per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    Metrics
}

// NewClient creates a Bot API client.
func NewClient(config Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	var metrics Metrics = noopMetrics{}
	if config.Metrics != nil {
		metrics = config.Metrics
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    metrics,
	}
}

// SendMessage posts msg with the given bot token. It makes exactly one
// attempt. A non-2xx answer yields a *DeliveryError carrying the response
// body; a 2xx answer is decoded and returned without interpretation.
func (c *Client) SendMessage(ctx context.Context, botToken string, msg Message) (map[string]interface{}, error) {
	start := time.Now()
	status := "error"
	defer func() {
		c.metrics.RecordAPICall(sendMessageEndpoint, status)
		c.metrics.RecordAPICallDuration(sendMessageEndpoint, time.Since(start))
	}()

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, botToken, sendMessageEndpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", unwrapURLError(err))
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token; report the failure without it.
		return nil, fmt.Errorf("failed to call telegram %s: %w", sendMessageEndpoint, unwrapURLError(err))
	}
	defer res.Body.Close()
	status = strconv.Itoa(res.StatusCode)

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &DeliveryError{StatusCode: res.StatusCode, Body: string(body)}
	}

	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}

func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
