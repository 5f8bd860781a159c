package mapping

import (
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:       d.EntryID,
		JournalID:     d.JournalID,
		OrderID:       NullableText(d.OrderID),
		AccountID:     d.AccountID,
		AccountKind:   string(d.AccountKind),
		Currency:      string(d.Currency),
		EntryType:     string(d.EntryType),
		Amount:        d.Amount,
		CorrelationID: d.CorrelationID,
		CreatedAt:     d.CreatedAt,
	}
}
