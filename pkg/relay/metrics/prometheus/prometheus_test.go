package prommetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string)
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func TestPrometheusMetrics_NewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if NewMetrics(reg, "test") == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestPrometheusMetrics_RecordWebhookEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordWebhookEvent("subscription_started", "notified")
	metrics.RecordWebhookEvent("subscription_started", "notified")
	metrics.RecordWebhookEvent("other", "untracked")

	mf, ok := gather(t, reg)["test_webhook_events_total"]
	if !ok {
		t.Fatal("test_webhook_events_total not registered")
	}
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 series, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		l := labels(m)
		want := 1.0
		if l["event_type"] == "subscription_started" && l["disposition"] == "notified" {
			want = 2
		}
		if got := m.GetCounter().GetValue(); got != want {
			t.Errorf("%v = %v, want %v", l, got, want)
		}
	}
}

func TestPrometheusMetrics_RecordWebhookProcessingDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordWebhookProcessingDuration("subscription_renewed", 50*time.Millisecond)

	mf, ok := gather(t, reg)["test_webhook_processing_duration_seconds"]
	if !ok {
		t.Fatal("histogram not registered")
	}
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d", h.GetSampleCount())
	}
	if h.GetSampleSum() < 0.05 {
		t.Errorf("sample sum = %v", h.GetSampleSum())
	}
}

func TestPrometheusMetrics_RecordWebhookError(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordWebhookError("auth_failed")

	mf, ok := gather(t, reg)["test_webhook_errors_total"]
	if !ok {
		t.Fatal("test_webhook_errors_total not registered")
	}
	if got := labels(mf.GetMetric()[0])["error_type"]; got != "auth_failed" {
		t.Errorf("error_type = %q", got)
	}
}

func TestPrometheusMetrics_RecordAPICall(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordAPICall("sendMessage", "200")
	metrics.RecordAPICallDuration("sendMessage", 120*time.Millisecond)

	families := gather(t, reg)
	calls, ok := families["test_telegram_api_calls_total"]
	if !ok {
		t.Fatal("test_telegram_api_calls_total not registered")
	}
	l := labels(calls.GetMetric()[0])
	if l["endpoint"] != "sendMessage" || l["status"] != "200" {
		t.Errorf("labels = %v", l)
	}
	if _, ok := families["test_telegram_api_call_duration_seconds"]; !ok {
		t.Error("test_telegram_api_call_duration_seconds not registered")
	}
}

func TestPrometheusMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg, "test")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewMetrics(reg, "test")
}
