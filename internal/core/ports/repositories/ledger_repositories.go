package repositories

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
)

// LedgerReader defines read operations for ledger entries
type LedgerReader interface {
	// SumUserLedgers returns credits minus debits per currency for every USER account that has entries.
	SumUserLedgers(ctx context.Context) (map[string]domain.Amounts, error)

	// SumAccountKind returns credits minus debits per currency across all accounts of a kind.
	SumAccountKind(ctx context.Context, kind domain.AccountKind) (domain.Amounts, error)
}

// LedgerWriter defines write operations for ledger entries
type LedgerWriter interface {
	// AppendEntries persists a balanced journal. Entries are never updated or deleted.
	AppendEntries(ctx context.Context, entries []domain.LedgerEntry) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
