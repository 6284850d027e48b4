package relay

import "time"

// Webhook dispositions reported to Metrics.
const (
	DispositionNotified       = "notified"
	DispositionSkippedSandbox = "skipped_sandbox"
	DispositionUntracked      = "untracked"
	DispositionFailed         = "failed"
)

// Webhook error types reported to Metrics.
const (
	ErrorTypeAuthFailed      = "auth_failed"
	ErrorTypeInvalidPayload  = "invalid_payload"
	ErrorTypeDeliveryFailed  = "delivery_failed"
	ErrorTypeProcessingError = "processing_error"
)

// Metrics defines the interface for tracking webhook processing.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// RecordWebhookEvent records an authorized webhook and what happened to it.
	// eventType is one of the tracked event types or "other".
	RecordWebhookEvent(eventType, disposition string)

	// RecordWebhookProcessingDuration records how long an authorized webhook took,
	// including the outbound notification.
	RecordWebhookProcessingDuration(eventType string, duration time.Duration)

	// RecordWebhookError records a failure, e.g. "auth_failed" or "delivery_failed".
	RecordWebhookError(errorType string)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordWebhookEvent(_, _ string)                            {}
func (n *NoopMetrics) RecordWebhookProcessingDuration(_ string, _ time.Duration) {}
func (n *NoopMetrics) RecordWebhookError(_ string)                               {}
