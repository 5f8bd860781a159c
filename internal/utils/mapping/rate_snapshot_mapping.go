package mapping

import (
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/models"
)

// ToDomainRateSnapshot converts a model RateSnapshot to a domain RateSnapshot
func ToDomainRateSnapshot(m models.RateSnapshot) domain.RateSnapshot {
	return domain.RateSnapshot{
		Symbol:    m.Symbol,
		Price:     m.Price,
		UpdatedAt: m.UpdatedAt,
	}
}
