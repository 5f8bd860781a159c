package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is one append-only row of ledger_entries.
type LedgerEntry struct {
	EntryID       string          `db:"entry_id"`
	JournalID     string          `db:"journal_id"`
	OrderID       sql.NullString  `db:"order_id"`
	AccountID     string          `db:"account_id"`
	AccountKind   string          `db:"account_kind"`
	Currency      string          `db:"currency"`
	EntryType     string          `db:"entry_type"`
	Amount        decimal.Decimal `db:"amount"` // Always positive
	CorrelationID string          `db:"correlation_id"`
	CreatedAt     time.Time       `db:"created_at"`
}
