package adapty

import (
	"math"
	"strings"
	"time"
)

// timestampLayout matches the en-US medium date / short time rendering,
// e.g. "Jan 5, 2025, 3:04 PM".
const timestampLayout = "Jan 2, 2006, 3:04 PM"

// InvalidDate is rendered for timestamps that cannot be parsed.
const InvalidDate = "Invalid Date"

// maxEpochMillis bounds the representable date range (±100,000,000 days).
const maxEpochMillis = 8.64e15

type heading struct {
	emoji string
	title string
}

var headings = map[string]heading{
	EventSubscriptionStarted:            {"🎉", "NEW SUBSCRIPTION STARTED"},
	EventSubscriptionRenewed:            {"🔄", "SUBSCRIPTION RENEWED"},
	EventSubscriptionRenewalCancelled:   {"⚠️", "AUTO-RENEWAL CANCELLED"},
	EventSubscriptionRenewalReactivated: {"✅", "AUTO-RENEWAL REACTIVATED"},
	EventNonSubscriptionPurchase:        {"💰", "CREDIT PACK PURCHASED"},
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	"2006-01",
	"2006",
	time.RFC1123,
	time.RFC1123Z,
}

// FormatMessage resolves e and renders it as an HTML chat message.
func FormatMessage(e *Event) string {
	return Render(Resolve(e))
}

// Render builds the notification text from resolved fields. Lines for
// absent optional fields are left out entirely.
func Render(f Fields) string {
	h, ok := headings[f.EventType]
	if !ok {
		h = heading{emoji: "📱", title: strings.ToUpper(strings.ReplaceAll(f.EventType, "_", " "))}
	}

	var b strings.Builder
	b.WriteString(h.emoji + " <b>" + h.title + "</b>\n\n")

	b.WriteString("<b>📦 Product:</b> " + f.ProductID + "\n")
	if f.BasePlanID != "" {
		b.WriteString("<b>Plan ID:</b> " + f.BasePlanID + "\n")
	}
	b.WriteString("<b>🎯 Access Level:</b> " + f.AccessLevel + "\n")

	b.WriteString("<b>💰 Price:</b> " + f.Price + "\n")
	if f.NetRevenue != "" {
		b.WriteString("<b>💵 Net Revenue:</b> " + f.NetRevenue + "\n")
	}

	b.WriteString("<b>🏪 Store:</b> " + f.Store + "\n")
	b.WriteString("<b>🌍 Country:</b> " + f.Country + "\n")

	if f.ConsecutivePayments != "" {
		b.WriteString("<b>🔢 Consecutive Payments:</b> " + f.ConsecutivePayments + "\n")
	}
	if f.ExpiresAt.Truthy() {
		b.WriteString("<b>⏰ Expires:</b> " + FormatTimestamp(f.ExpiresAt) + " UTC\n")
	}
	if f.PaywallName != "" {
		b.WriteString("<b>📊 Paywall:</b> " + f.PaywallName + "\n")
	}

	b.WriteString("<b>🔧 Environment:</b> " + EnvironmentBadge(f.Environment) + "\n")

	b.WriteString("\n<b>👤 Profile ID:</b> <code>" + f.ProfileID + "</code>\n")
	// A customer id that is literally "N/A" reads as missing too.
	if f.CustomerUserID != "" && f.CustomerUserID != defaultNotAvailable {
		b.WriteString("<b>User ID:</b> " + f.CustomerUserID + "\n")
	}

	b.WriteString("\n<i>🕐 " + FormatTimestamp(f.EventDatetime) + " UTC</i>")
	return b.String()
}

// EnvironmentBadge decorates the resolved environment name.
func EnvironmentBadge(env string) string {
	switch env {
	case EnvironmentProduction:
		return "🟢 Production"
	case EnvironmentSandbox:
		return "🟡 Sandbox"
	default:
		return "⚪ " + env
	}
}

// FormatTimestamp renders v in UTC. Numbers are epoch milliseconds, strings
// are ISO-8601 style dates, null is the epoch and anything else is invalid.
func FormatTimestamp(v Value) string {
	t, ok := parseTimestamp(v)
	if !ok {
		return InvalidDate
	}
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(v Value) (time.Time, bool) {
	if !v.Present() {
		return time.Time{}, false
	}
	switch x := v.v.(type) {
	case nil:
		return time.UnixMilli(0), true
	case bool:
		if x {
			return time.UnixMilli(1), true
		}
		return time.UnixMilli(0), true
	case float64:
		if math.IsNaN(x) || math.Abs(x) > maxEpochMillis {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
