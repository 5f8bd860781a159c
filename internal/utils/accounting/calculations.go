package accounting

import (
	"fmt"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Trade holds the gross amounts exchanged with the liquidity account and the fee withheld.
// For buys the fee is in base; for sells it is in quote.
type Trade struct {
	AmountBase  decimal.Decimal
	AmountQuote decimal.Decimal
	FeeBase     decimal.Decimal
	FeeQuote    decimal.Decimal
}

// QuoteEquivalent is the gross quote amount of the trade, used for bounds checks.
func (t Trade) QuoteEquivalent() decimal.Decimal {
	return t.AmountQuote
}

// UserDelta is the change the trade applies to the user's balance.
func (t Trade) UserDelta(side domain.Side) domain.Amounts {
	if side == domain.BuyBase {
		return domain.Amounts{Base: t.AmountBase.Sub(t.FeeBase), Quote: t.AmountQuote.Neg()}
	}
	return domain.Amounts{Base: t.AmountBase.Neg(), Quote: t.AmountQuote.Sub(t.FeeQuote)}
}

// PriceTrade computes the amounts of a conversion at price p with fee rate f.
// All results are rounded to scale decimal places.
//
//	buy,  quote q: base = q/p,  fee = base*f (base)
//	buy,  base b:  quote = b*p, fee = b*f    (base)
//	sell, base b:  quote = b*p, fee = quote*f (quote)
//	sell, quote q: base = q/p,  fee = q*f    (quote)
func PriceTrade(side domain.Side, input decimal.Decimal, inputCurrency domain.Currency, price, feeRate decimal.Decimal, scale int32) (Trade, error) {
	if !price.IsPositive() {
		return Trade{}, fmt.Errorf("price must be positive, got %s", price)
	}
	if !input.IsPositive() {
		return Trade{}, fmt.Errorf("input amount must be positive, got %s", input)
	}

	var t Trade
	if inputCurrency == domain.Quote {
		t.AmountQuote = input.Round(scale)
		t.AmountBase = input.Div(price).Round(scale)
	} else {
		t.AmountBase = input.Round(scale)
		t.AmountQuote = input.Mul(price).Round(scale)
	}

	switch side {
	case domain.BuyBase:
		t.FeeBase = t.AmountBase.Mul(feeRate).Round(scale)
		t.FeeQuote = decimal.Zero
	case domain.SellBase:
		t.FeeQuote = t.AmountQuote.Mul(feeRate).Round(scale)
		t.FeeBase = decimal.Zero
	default:
		return Trade{}, fmt.Errorf("unknown side '%s'", side)
	}

	if !t.AmountBase.IsPositive() || !t.AmountQuote.IsPositive() {
		return Trade{}, fmt.Errorf("amount %s %s is too small to convert at price %s", input, inputCurrency, price)
	}
	return t, nil
}
