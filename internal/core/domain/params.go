package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmountScale is the number of decimal places the amount columns store.
// A larger scale would be rounded per row by the database and unbalance journals.
const MaxAmountScale = 8

// ExchangeParams are the environment-specific economics of the engine.
// MarketFeeRate and LimitFeeRate are configured independently.
type ExchangeParams struct {
	MarketFeeRate  decimal.Decimal
	LimitFeeRate   decimal.Decimal
	MinQuoteAmount decimal.Decimal
	MaxQuoteAmount decimal.Decimal
	AmountScale    int32
}

// Validate checks the parameters are usable.
func (p ExchangeParams) Validate() error {
	one := decimal.NewFromInt(1)
	if p.MarketFeeRate.IsNegative() || p.MarketFeeRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("market fee rate must be in [0, 1), got %s", p.MarketFeeRate)
	}
	if p.LimitFeeRate.IsNegative() || p.LimitFeeRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("limit fee rate must be in [0, 1), got %s", p.LimitFeeRate)
	}
	if !p.MinQuoteAmount.IsPositive() || p.MaxQuoteAmount.LessThan(p.MinQuoteAmount) {
		return fmt.Errorf("quote bounds must satisfy 0 < min <= max, got [%s, %s]", p.MinQuoteAmount, p.MaxQuoteAmount)
	}
	if p.AmountScale < 0 || p.AmountScale > MaxAmountScale {
		return fmt.Errorf("amount scale must be in [0, %d], got %d", MaxAmountScale, p.AmountScale)
	}
	return nil
}

// FeeRate returns the rate applied to the given order type.
func (p ExchangeParams) FeeRate(t OrderType) decimal.Decimal {
	if t == Limit {
		return p.LimitFeeRate
	}
	return p.MarketFeeRate
}
