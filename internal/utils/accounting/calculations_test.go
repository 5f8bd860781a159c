package accounting_test

import (
	"testing"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPriceTrade(t *testing.T) {
	testCases := []struct {
		name          string
		side          domain.Side
		input         string
		inputCurrency domain.Currency
		price         string
		feeRate       string
		wantBase      string
		wantQuote     string
		wantFeeBase   string
		wantFeeQuote  string
		wantDelta     domain.Amounts
	}{
		{
			name: "buy with quote", side: domain.BuyBase, input: "100", inputCurrency: domain.Quote,
			price: "5", feeRate: "0.01",
			wantBase: "20", wantQuote: "100", wantFeeBase: "0.2", wantFeeQuote: "0",
			wantDelta: domain.Amounts{Base: d("19.8"), Quote: d("-100")},
		},
		{
			name: "buy with base", side: domain.BuyBase, input: "10", inputCurrency: domain.Base,
			price: "4.5", feeRate: "0.01",
			wantBase: "10", wantQuote: "45", wantFeeBase: "0.1", wantFeeQuote: "0",
			wantDelta: domain.Amounts{Base: d("9.9"), Quote: d("-45")},
		},
		{
			name: "sell base", side: domain.SellBase, input: "10", inputCurrency: domain.Base,
			price: "4.5", feeRate: "0.02",
			wantBase: "10", wantQuote: "45", wantFeeBase: "0", wantFeeQuote: "0.9",
			wantDelta: domain.Amounts{Base: d("-10"), Quote: d("44.1")},
		},
		{
			name: "sell for quote", side: domain.SellBase, input: "50", inputCurrency: domain.Quote,
			price: "4", feeRate: "0.01",
			wantBase: "12.5", wantQuote: "50", wantFeeBase: "0", wantFeeQuote: "0.5",
			wantDelta: domain.Amounts{Base: d("-12.5"), Quote: d("49.5")},
		},
		{
			name: "rounds to scale", side: domain.BuyBase, input: "10", inputCurrency: domain.Quote,
			price: "3", feeRate: "0.01",
			wantBase: "3.33333333", wantQuote: "10", wantFeeBase: "0.03333333", wantFeeQuote: "0",
			wantDelta: domain.Amounts{Base: d("3.3"), Quote: d("-10")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			trade, err := accounting.PriceTrade(tc.side, d(tc.input), tc.inputCurrency, d(tc.price), d(tc.feeRate), 8)
			require.NoError(t, err)
			assert.True(t, d(tc.wantBase).Equal(trade.AmountBase), "base: %s", trade.AmountBase)
			assert.True(t, d(tc.wantQuote).Equal(trade.AmountQuote), "quote: %s", trade.AmountQuote)
			assert.True(t, d(tc.wantFeeBase).Equal(trade.FeeBase), "fee base: %s", trade.FeeBase)
			assert.True(t, d(tc.wantFeeQuote).Equal(trade.FeeQuote), "fee quote: %s", trade.FeeQuote)

			delta := trade.UserDelta(tc.side)
			assert.True(t, tc.wantDelta.Base.Equal(delta.Base), "delta base: %s", delta.Base)
			assert.True(t, tc.wantDelta.Quote.Equal(delta.Quote), "delta quote: %s", delta.Quote)
		})
	}
}

func TestPriceTrade_Rejects(t *testing.T) {
	_, err := accounting.PriceTrade(domain.BuyBase, d("0"), domain.Quote, d("5"), d("0.01"), 8)
	assert.Error(t, err)

	_, err = accounting.PriceTrade(domain.BuyBase, d("10"), domain.Quote, d("0"), d("0.01"), 8)
	assert.Error(t, err)

	_, err = accounting.PriceTrade(domain.BuyBase, d("0.00000001"), domain.Quote, d("1000"), d("0.01"), 8)
	assert.Error(t, err, "rounds to zero base")
}

func TestTradeJournal_BalancesAndMatchesUserDelta(t *testing.T) {
	for _, side := range []domain.Side{domain.BuyBase, domain.SellBase} {
		trade, err := accounting.PriceTrade(side, d("100"), domain.Quote, d("5"), d("0.01"), 8)
		require.NoError(t, err)

		order := domain.ExchangeOrder{
			OrderID:       "order-1",
			UserID:        "user-1",
			Side:          side,
			AmountBase:    trade.AmountBase,
			AmountQuote:   trade.AmountQuote,
			FeeBase:       trade.FeeBase,
			FeeQuote:      trade.FeeQuote,
			CorrelationID: "corr-1",
		}
		entries := accounting.TradeJournal(order, time.Now())

		require.NoError(t, accounting.ValidateJournalBalance(entries))
		assert.Len(t, entries, 5)

		delta := accounting.AccountDelta(entries, "user-1")
		want := trade.UserDelta(side)
		assert.True(t, want.Base.Equal(delta.Base), "%s base delta %s", side, delta.Base)
		assert.True(t, want.Quote.Equal(delta.Quote), "%s quote delta %s", side, delta.Quote)

		fees := accounting.AccountDelta(entries, domain.FeeAccountID)
		assert.True(t, trade.FeeBase.Equal(fees.Base))
		assert.True(t, trade.FeeQuote.Equal(fees.Quote))

		for _, e := range entries {
			assert.Equal(t, "order-1", e.OrderID)
			assert.Equal(t, "corr-1", e.CorrelationID)
		}
	}
}

func TestDepositJournal(t *testing.T) {
	entries := accounting.DepositJournal("user-1", domain.Amounts{Base: decimal.Zero, Quote: d("250")}, "corr-1", time.Now())

	require.NoError(t, accounting.ValidateJournalBalance(entries))
	assert.Len(t, entries, 2, "zero base side posts nothing")

	delta := accounting.AccountDelta(entries, "user-1")
	assert.True(t, delta.Base.IsZero())
	assert.True(t, d("250").Equal(delta.Quote))
}

func TestValidateJournalBalance_Unbalanced(t *testing.T) {
	entries := []domain.LedgerEntry{
		{EntryID: "e1", AccountID: "user-1", Currency: domain.Quote, EntryType: domain.Debit, Amount: d("10")},
		{EntryID: "e2", AccountID: domain.LiquidityAccountID, Currency: domain.Quote, EntryType: domain.Credit, Amount: d("9")},
	}
	err := accounting.ValidateJournalBalance(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not balance")

	entries[1].Amount = d("-10")
	assert.Error(t, accounting.ValidateJournalBalance(entries))

	assert.Error(t, accounting.ValidateJournalBalance(entries[:1]))
}
