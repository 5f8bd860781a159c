package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind identifies who a ledger entry belongs to.
type AccountKind string

const (
	UserAccount      AccountKind = "USER"
	LiquidityAccount AccountKind = "LIQUIDITY"
	FeeAccount       AccountKind = "FEE"
	ExternalAccount  AccountKind = "EXTERNAL"
)

// Platform-side ledger account identifiers.
const (
	LiquidityAccountID = "platform:liquidity"
	FeeAccountID       = "platform:fees"
	ExternalAccountID  = "platform:external"
)

// EntryType indicates whether a ledger line is a Debit or a Credit.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// LedgerEntry is one append-only line of a balanced journal.
// Credits increase the account, debits decrease it.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`
	JournalID     string          `json:"journalID"`
	OrderID       string          `json:"orderID,omitempty"`
	AccountID     string          `json:"accountID"`
	AccountKind   AccountKind     `json:"accountKind"`
	Currency      Currency        `json:"currency"`
	EntryType     EntryType       `json:"entryType"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID string          `json:"correlationID"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Signed returns the amount with credits positive and debits negative.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.EntryType == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}
