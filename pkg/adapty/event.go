// Package adapty models Adapty webhook events and renders them as chat notifications.
package adapty

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Event types that produce a notification.
const (
	EventSubscriptionStarted            = "subscription_started"
	EventSubscriptionRenewed            = "subscription_renewed"
	EventSubscriptionRenewalCancelled   = "subscription_renewal_cancelled"
	EventSubscriptionRenewalReactivated = "subscription_renewal_reactivated"
	EventNonSubscriptionPurchase        = "non_subscription_purchase"
)

// Environment markers.
const (
	EnvironmentSandbox    = "Sandbox"
	EnvironmentProduction = "Production"
)

const (
	defaultUnknown      = "Unknown"
	defaultNotAvailable = "N/A"
	defaultCurrency     = "USD"
)

// TrackedEvents is the fixed set of event types relayed to chat, in display order.
var TrackedEvents = []string{
	EventSubscriptionStarted,
	EventSubscriptionRenewed,
	EventSubscriptionRenewalCancelled,
	EventSubscriptionRenewalReactivated,
	EventNonSubscriptionPurchase,
}

// ErrNullPayload is returned when the webhook body is the JSON literal null.
var ErrNullPayload = errors.New("cannot read properties of null payload (reading 'event_type')")

// Event is an incoming Adapty webhook. No schema is enforced: every field is
// optional and any field may carry any JSON type.
type Event struct {
	EventType      Value
	ProfileID      Value
	CustomerUserID Value
	AccessLevelID  Value
	ProductID      Value
	Store          Value
	Price          Value
	Currency       Value
	Environment    Value
	ProfileCountry Value
	EventDatetime  Value
	Properties     Properties
}

// Properties is the nested event_properties record. Its fields take
// precedence over their top-level counterparts.
type Properties struct {
	VendorProductID       Value
	Store                 Value
	PriceLocal            Value
	PriceUSD              Value
	Currency              Value
	NetRevenueUSD         Value
	NetRevenueLocal       Value
	Environment           Value
	StoreCountry          Value
	ProfileCountry        Value
	ConsecutivePayments   Value
	SubscriptionExpiresAt Value
	PaywallName           Value
	BasePlanID            Value
}

func (e *Event) fields() map[string]*Value {
	return map[string]*Value{
		"event_type":       &e.EventType,
		"profile_id":       &e.ProfileID,
		"customer_user_id": &e.CustomerUserID,
		"access_level_id":  &e.AccessLevelID,
		"product_id":       &e.ProductID,
		"store":            &e.Store,
		"price":            &e.Price,
		"currency":         &e.Currency,
		"environment":      &e.Environment,
		"profile_country":  &e.ProfileCountry,
		"event_datetime":   &e.EventDatetime,
	}
}

func (p *Properties) fields() map[string]*Value {
	return map[string]*Value{
		"vendor_product_id":       &p.VendorProductID,
		"store":                   &p.Store,
		"price_local":             &p.PriceLocal,
		"price_usd":               &p.PriceUSD,
		"currency":                &p.Currency,
		"net_revenue_usd":         &p.NetRevenueUSD,
		"net_revenue_local":       &p.NetRevenueLocal,
		"environment":             &p.Environment,
		"store_country":           &p.StoreCountry,
		"profile_country":         &p.ProfileCountry,
		"consecutive_payments":    &p.ConsecutivePayments,
		"subscription_expires_at": &p.SubscriptionExpiresAt,
		"paywall_name":            &p.PaywallName,
		"base_plan_id":            &p.BasePlanID,
	}
}

// UnmarshalJSON decodes the recognized keys and ignores everything else.
// A non-object document leaves every field absent.
func (e *Event) UnmarshalJSON(data []byte) error {
	*e = Event{}
	obj, ok := decodeObject(data)
	if !ok {
		return nil
	}
	if err := assign(obj, e.fields()); err != nil {
		return err
	}
	if raw, ok := obj["event_properties"]; ok {
		return e.Properties.UnmarshalJSON(raw)
	}
	return nil
}

// UnmarshalJSON decodes the recognized nested keys. A non-object leaves every
// field absent.
func (p *Properties) UnmarshalJSON(data []byte) error {
	*p = Properties{}
	obj, ok := decodeObject(data)
	if !ok {
		return nil
	}
	return assign(obj, p.fields())
}

// ParseEvent decodes a webhook body. Malformed JSON and a literal null are
// errors; any other JSON document yields an Event.
func ParseEvent(body []byte) (*Event, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		var probe interface{}
		return nil, fmt.Errorf("invalid JSON payload: %w", json.Unmarshal(trimmed, &probe))
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNullPayload
	}
	var ev Event
	if err := ev.UnmarshalJSON(trimmed); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return &ev, nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func assign(obj map[string]json.RawMessage, dst map[string]*Value) error {
	for key, field := range dst {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if err := field.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

// IsTracked reports whether eventType is one of TrackedEvents.
func IsTracked(eventType Value) bool {
	for _, t := range TrackedEvents {
		if eventType.Is(t) {
			return true
		}
	}
	return false
}

// ResolveEnvironment returns event_properties.environment, then the
// top-level environment, then "Unknown".
func ResolveEnvironment(e *Event) string {
	return e.Properties.Environment.Or(e.Environment).OrString(defaultUnknown)
}

// IsSandbox reports whether the resolved environment is exactly "Sandbox".
func IsSandbox(e *Event) bool {
	env := e.Properties.Environment.Or(e.Environment)
	return env.Is(EnvironmentSandbox)
}
