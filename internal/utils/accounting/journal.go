package accounting

import (
	"fmt"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type journal struct {
	id            string
	orderID       string
	correlationID string
	at            time.Time
	entries       []domain.LedgerEntry
}

func newJournal(orderID, correlationID string, at time.Time) *journal {
	return &journal{id: uuid.NewString(), orderID: orderID, correlationID: correlationID, at: at}
}

func (j *journal) post(accountID string, kind domain.AccountKind, currency domain.Currency, entryType domain.EntryType, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	j.entries = append(j.entries, domain.LedgerEntry{
		EntryID:       uuid.NewString(),
		JournalID:     j.id,
		OrderID:       j.orderID,
		AccountID:     accountID,
		AccountKind:   kind,
		Currency:      currency,
		EntryType:     entryType,
		Amount:        amount,
		CorrelationID: j.correlationID,
		CreatedAt:     j.at,
	})
}

// TradeJournal builds the balanced entries for a filled order.
//
// A buy moves quote from the user to liquidity and base from liquidity to the user, withholding
// the base fee into the fee account. A sell mirrors it with the fee withheld in quote.
func TradeJournal(order domain.ExchangeOrder, at time.Time) []domain.LedgerEntry {
	j := newJournal(order.OrderID, order.CorrelationID, at)
	user := order.UserID

	if order.Side == domain.BuyBase {
		j.post(user, domain.UserAccount, domain.Quote, domain.Debit, order.AmountQuote)
		j.post(domain.LiquidityAccountID, domain.LiquidityAccount, domain.Quote, domain.Credit, order.AmountQuote)
		j.post(domain.LiquidityAccountID, domain.LiquidityAccount, domain.Base, domain.Debit, order.AmountBase)
		j.post(user, domain.UserAccount, domain.Base, domain.Credit, order.AmountBase.Sub(order.FeeBase))
		j.post(domain.FeeAccountID, domain.FeeAccount, domain.Base, domain.Credit, order.FeeBase)
		return j.entries
	}

	j.post(user, domain.UserAccount, domain.Base, domain.Debit, order.AmountBase)
	j.post(domain.LiquidityAccountID, domain.LiquidityAccount, domain.Base, domain.Credit, order.AmountBase)
	j.post(domain.LiquidityAccountID, domain.LiquidityAccount, domain.Quote, domain.Debit, order.AmountQuote)
	j.post(user, domain.UserAccount, domain.Quote, domain.Credit, order.AmountQuote.Sub(order.FeeQuote))
	j.post(domain.FeeAccountID, domain.FeeAccount, domain.Quote, domain.Credit, order.FeeQuote)
	return j.entries
}

// DepositJournal builds the entries moving funds from the external account to a user.
func DepositJournal(userID string, amounts domain.Amounts, correlationID string, at time.Time) []domain.LedgerEntry {
	j := newJournal("", correlationID, at)
	j.post(domain.ExternalAccountID, domain.ExternalAccount, domain.Base, domain.Debit, amounts.Base)
	j.post(userID, domain.UserAccount, domain.Base, domain.Credit, amounts.Base)
	j.post(domain.ExternalAccountID, domain.ExternalAccount, domain.Quote, domain.Debit, amounts.Quote)
	j.post(userID, domain.UserAccount, domain.Quote, domain.Credit, amounts.Quote)
	return j.entries
}

// ValidateJournalBalance checks that debits equal credits in each currency and that every line is positive.
func ValidateJournalBalance(entries []domain.LedgerEntry) error {
	if len(entries) < 2 {
		return fmt.Errorf("journal must have at least two entries")
	}

	sums := map[domain.Currency]decimal.Decimal{}
	for _, e := range entries {
		if !e.Amount.IsPositive() {
			return fmt.Errorf("entry amount must be positive for entry ID %s", e.EntryID)
		}
		if !e.Currency.Valid() {
			return fmt.Errorf("unknown currency '%s' for entry ID %s", e.Currency, e.EntryID)
		}
		sums[e.Currency] = sums[e.Currency].Add(e.Signed())
	}

	for currency, sum := range sums {
		if !sum.IsZero() {
			return fmt.Errorf("journal entries do not balance in %s: sum is %s", currency, sum.String())
		}
	}
	return nil
}

// AccountDelta sums the signed entries posted to accountID.
func AccountDelta(entries []domain.LedgerEntry, accountID string) domain.Amounts {
	delta := domain.Amounts{Base: decimal.Zero, Quote: decimal.Zero}
	for _, e := range entries {
		if e.AccountID != accountID {
			continue
		}
		if e.Currency == domain.Base {
			delta.Base = delta.Base.Add(e.Signed())
		} else {
			delta.Quote = delta.Quote.Add(e.Signed())
		}
	}
	return delta
}
