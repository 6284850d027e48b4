package adapty

// Fields holds the values of an event after the fallback chains have been
// applied. Optional lines, CustomerUserID included, are empty when they
// should be left out.
type Fields struct {
	EventType           string
	ProfileID           string
	CustomerUserID      string
	AccessLevel         string
	ProductID           string
	BasePlanID          string
	Store               string
	Currency            string
	Price               string
	NetRevenue          string
	Country             string
	Environment         string
	ConsecutivePayments string
	PaywallName         string
	ExpiresAt           Value
	EventDatetime       Value
}

// Resolve applies the per-field precedence rules to e. Nested
// event_properties win over top-level fields, which win over the defaults.
func Resolve(e *Event) Fields {
	p := &e.Properties
	currency := p.Currency.Or(e.Currency).OrString(defaultCurrency)

	f := Fields{
		ProfileID:     e.ProfileID.OrString(defaultUnknown),
		AccessLevel:   e.AccessLevelID.OrString(defaultUnknown),
		ProductID:     p.VendorProductID.Or(e.ProductID).OrString(defaultUnknown),
		Store:         p.Store.Or(e.Store).OrString(defaultUnknown),
		Currency:      currency,
		Price:         PriceDisplay(currency, p.PriceLocal, p.PriceUSD, e.Price),
		NetRevenue:    amountDisplay(currency, p.NetRevenueLocal, p.NetRevenueUSD),
		Country:       p.StoreCountry.Or(p.ProfileCountry).Or(e.ProfileCountry).OrString(defaultUnknown),
		Environment:   ResolveEnvironment(e),
		EventDatetime: e.EventDatetime,
	}
	if e.EventType.Present() {
		f.EventType = e.EventType.String()
	}
	if e.CustomerUserID.Truthy() {
		f.CustomerUserID = e.CustomerUserID.String()
	}
	if p.BasePlanID.Truthy() {
		f.BasePlanID = p.BasePlanID.String()
	}
	if p.ConsecutivePayments.Truthy() {
		f.ConsecutivePayments = p.ConsecutivePayments.String()
	}
	if p.SubscriptionExpiresAt.Truthy() {
		f.ExpiresAt = p.SubscriptionExpiresAt
	}
	if p.PaywallName.Truthy() {
		f.PaywallName = p.PaywallName.String()
	}
	return f
}

// PriceDisplay renders the price line: the local amount with its currency,
// followed by the USD amount for non-USD currencies, then USD alone, then
// the top-level price, then "N/A".
func PriceDisplay(currency string, local, usd, price Value) string {
	if s := amountDisplay(currency, local, usd); s != "" {
		return s
	}
	if price.Truthy() {
		return "$" + price.String()
	}
	return defaultNotAvailable
}

// amountDisplay returns "" when neither amount is present.
func amountDisplay(currency string, local, usd Value) string {
	if local.Truthy() && currency != "" {
		s := currency + " " + local.String()
		if usd.Truthy() && currency != defaultCurrency {
			s += " ($" + usd.String() + ")"
		}
		return s
	}
	if usd.Truthy() {
		return "$" + usd.String()
	}
	return ""
}
