package relay

import "encoding/json"

// Reason reported when a sandbox event is acknowledged without a notification.
const ReasonSandboxEnvironment = "sandbox_environment"

// WebhookResponse acknowledges a processed webhook.
type WebhookResponse struct {
	Success   bool            `json:"success"`
	EventType json.RawMessage `json:"event_type,omitempty"` // echoed as received, omitted when absent
	Skipped   bool            `json:"skipped,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// ErrorResponse is returned for auth failures (401, error only) and for
// pipeline failures (200, error and stack).
type ErrorResponse struct {
	Error string `json:"error"`
	Stack string `json:"stack,omitempty"`
}

// HealthResponse reports liveness and which secrets are configured.
type HealthResponse struct {
	Status           string `json:"status"`
	Timestamp        int64  `json:"timestamp"` // unix milliseconds
	HasToken         bool   `json:"hasToken"`
	HasTelegramToken bool   `json:"hasTelegramToken"`
	HasChatID        bool   `json:"hasChatId"`
}
