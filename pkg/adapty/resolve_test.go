package adapty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_ProductPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested wins", `{"product_id":"root","event_properties":{"vendor_product_id":"nested"}}`, "nested"},
		{"root fallback", `{"product_id":"root","event_properties":{}}`, "root"},
		{"empty nested falls through", `{"product_id":"root","event_properties":{"vendor_product_id":""}}`, "root"},
		{"default", `{}`, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(mustParse(t, tt.body)).ProductID)
		})
	}
}

func TestResolve_StorePrecedence(t *testing.T) {
	assert.Equal(t, "app_store", Resolve(mustParse(t, `{"store":"root","event_properties":{"store":"app_store"}}`)).Store)
	assert.Equal(t, "root", Resolve(mustParse(t, `{"store":"root"}`)).Store)
	assert.Equal(t, "Unknown", Resolve(mustParse(t, `{}`)).Store)
}

func TestResolve_CurrencyPrecedence(t *testing.T) {
	assert.Equal(t, "EUR", Resolve(mustParse(t, `{"currency":"GBP","event_properties":{"currency":"EUR"}}`)).Currency)
	assert.Equal(t, "GBP", Resolve(mustParse(t, `{"currency":"GBP"}`)).Currency)
	assert.Equal(t, "USD", Resolve(mustParse(t, `{}`)).Currency)
}

func TestResolve_CountryPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"store country", `{"profile_country":"FR","event_properties":{"store_country":"DE","profile_country":"IT"}}`, "DE"},
		{"nested profile country", `{"profile_country":"FR","event_properties":{"profile_country":"IT"}}`, "IT"},
		{"root profile country", `{"profile_country":"FR"}`, "FR"},
		{"default", `{"event_properties":null}`, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(mustParse(t, tt.body)).Country)
		})
	}
}

func TestResolve_Environment(t *testing.T) {
	assert.Equal(t, "Production", Resolve(mustParse(t, `{"environment":"Sandbox","event_properties":{"environment":"Production"}}`)).Environment)
	assert.Equal(t, "Sandbox", Resolve(mustParse(t, `{"environment":"Sandbox"}`)).Environment)
	assert.Equal(t, "Unknown", Resolve(mustParse(t, `{}`)).Environment)
}

func TestPriceDisplay(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		local    Value
		usd      Value
		price    Value
		want     string
	}{
		{"local and usd", "EUR", StringValue("9.99"), StringValue("10.50"), Value{}, "EUR 9.99 ($10.50)"},
		{"local in usd", "USD", StringValue("4.99"), StringValue("4.99"), Value{}, "USD 4.99"},
		{"local only", "JPY", NumberValue(1200), Value{}, Value{}, "JPY 1200"},
		{"usd only", "EUR", Value{}, NumberValue(10.5), Value{}, "$10.5"},
		{"root price", "USD", Value{}, Value{}, NumberValue(3), "$3"},
		{"zero local falls through", "EUR", NumberValue(0), NumberValue(1.25), Value{}, "$1.25"},
		{"nothing", "USD", Value{}, Value{}, Value{}, "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceDisplay(tt.currency, tt.local, tt.usd, tt.price))
		})
	}
}

func TestResolve_NetRevenue(t *testing.T) {
	f := Resolve(mustParse(t, `{"event_properties":{"currency":"EUR","net_revenue_local":"6.99","net_revenue_usd":"7.35"}}`))
	assert.Equal(t, "EUR 6.99 ($7.35)", f.NetRevenue)

	f = Resolve(mustParse(t, `{"event_properties":{"net_revenue_usd":7.35}}`))
	assert.Equal(t, "$7.35", f.NetRevenue)

	f = Resolve(mustParse(t, `{"price":5}`))
	assert.Empty(t, f.NetRevenue, "root price must not feed net revenue")
}

func TestResolve_OptionalFields(t *testing.T) {
	f := Resolve(mustParse(t, `{"event_properties":{"consecutive_payments":0,"paywall_name":"","base_plan_id":null}}`))
	assert.Empty(t, f.ConsecutivePayments)
	assert.Empty(t, f.PaywallName)
	assert.Empty(t, f.BasePlanID)
	assert.False(t, f.ExpiresAt.Truthy())

	f = Resolve(mustParse(t, `{"event_properties":{"consecutive_payments":12,"paywall_name":"spring","base_plan_id":"p1m"}}`))
	assert.Equal(t, "12", f.ConsecutivePayments)
	assert.Equal(t, "spring", f.PaywallName)
	assert.Equal(t, "p1m", f.BasePlanID)
}

func TestResolve_OutOfRangePrice(t *testing.T) {
	assert.Equal(t, "$Infinity", Resolve(mustParse(t, `{"price":1e400}`)).Price)
	assert.Equal(t, "$-Infinity", Resolve(mustParse(t, `{"event_properties":{"price_usd":-1e400}}`)).Price)
	assert.Equal(t, "EUR Infinity ($1)", Resolve(mustParse(t,
		`{"event_properties":{"currency":"EUR","price_local":1e400,"price_usd":1}}`)).Price)
}

func TestResolve_CustomerUserID(t *testing.T) {
	assert.Empty(t, Resolve(mustParse(t, `{}`)).CustomerUserID)
	assert.Empty(t, Resolve(mustParse(t, `{"customer_user_id":""}`)).CustomerUserID)
	assert.Equal(t, "u-7", Resolve(mustParse(t, `{"customer_user_id":"u-7"}`)).CustomerUserID)
}
