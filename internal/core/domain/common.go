package domain

// Currency identifies one side of the single quote/base pair the engine trades.
type Currency string

const (
	// Base is the platform token being bought or sold.
	Base Currency = "BASE"
	// Quote is the fiat-referenced currency balances are priced in.
	Quote Currency = "QUOTE"
)

// Valid reports whether c is one of the two supported currencies.
func (c Currency) Valid() bool {
	return c == Base || c == Quote
}

// Side is the direction of an order relative to the base currency.
type Side string

const (
	BuyBase  Side = "buy"
	SellBase Side = "sell"
)

// Valid reports whether s is a supported side.
func (s Side) Valid() bool {
	return s == BuyBase || s == SellBase
}

// Severity grades audit entries.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)
