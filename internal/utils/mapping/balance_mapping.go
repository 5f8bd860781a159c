package mapping

import (
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/models"
)

// ToModelBalance converts a domain Balance to a model Balance
func ToModelBalance(d domain.Balance) models.Balance {
	return models.Balance{
		UserID:       d.UserID,
		BaseBalance:  d.BaseBalance,
		QuoteBalance: d.QuoteBalance,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ToDomainBalance converts a model Balance to a domain Balance
func ToDomainBalance(m models.Balance) domain.Balance {
	return domain.Balance{
		UserID:       m.UserID,
		BaseBalance:  m.BaseBalance,
		QuoteBalance: m.QuoteBalance,
		UpdatedAt:    m.UpdatedAt,
	}
}
