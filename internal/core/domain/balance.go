package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the single per-user row holding both currencies.
// Both fields are never negative.
type Balance struct {
	UserID       string          `json:"userID"`
	BaseBalance  decimal.Decimal `json:"baseBalance"`
	QuoteBalance decimal.Decimal `json:"quoteBalance"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Amounts is a pair of base/quote figures used for deltas and aggregates.
type Amounts struct {
	Base  decimal.Decimal `json:"base"`
	Quote decimal.Decimal `json:"quote"`
}

// Add returns the component-wise sum.
func (a Amounts) Add(o Amounts) Amounts {
	return Amounts{Base: a.Base.Add(o.Base), Quote: a.Quote.Add(o.Quote)}
}

// Sub returns the component-wise difference.
func (a Amounts) Sub(o Amounts) Amounts {
	return Amounts{Base: a.Base.Sub(o.Base), Quote: a.Quote.Sub(o.Quote)}
}

// Amounts returns the balance as an Amounts pair.
func (b Balance) Amounts() Amounts {
	return Amounts{Base: b.BaseBalance, Quote: b.QuoteBalance}
}

// Apply returns a copy of b with delta applied. It does not check the sign of the result.
func (b Balance) Apply(delta Amounts, at time.Time) Balance {
	return Balance{
		UserID:       b.UserID,
		BaseBalance:  b.BaseBalance.Add(delta.Base),
		QuoteBalance: b.QuoteBalance.Add(delta.Quote),
		UpdatedAt:    at,
	}
}

// IsNonNegative reports whether both currencies are >= 0.
func (b Balance) IsNonNegative() bool {
	return !b.BaseBalance.IsNegative() && !b.QuoteBalance.IsNegative()
}

// SameValues reports whether b and o hold the same amounts. Used as the compare-and-swap predicate.
func (b Balance) SameValues(o Balance) bool {
	return b.UserID == o.UserID && b.BaseBalance.Equal(o.BaseBalance) && b.QuoteBalance.Equal(o.QuoteBalance)
}
