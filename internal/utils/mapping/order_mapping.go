package mapping

import (
	"database/sql"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelExchangeOrder converts a domain ExchangeOrder to a model ExchangeOrder
func ToModelExchangeOrder(d domain.ExchangeOrder) models.ExchangeOrder {
	return models.ExchangeOrder{
		OrderID:        d.OrderID,
		UserID:         d.UserID,
		Side:           string(d.Side),
		OrderType:      string(d.OrderType),
		InputAmount:    d.InputAmount,
		InputCurrency:  string(d.InputCurrency),
		LimitPrice:     toNullDecimal(d.LimitPrice),
		ExecutionPrice: toNullDecimal(d.ExecutionPrice),
		AmountBase:     d.AmountBase,
		AmountQuote:    d.AmountQuote,
		FeeBase:        d.FeeBase,
		FeeQuote:       d.FeeQuote,
		Status:         string(d.Status),
		FailureReason:  NullableText(d.FailureReason),
		CorrelationID:  d.CorrelationID,
		CreatedAt:      d.CreatedAt,
		FilledAt:       utcPtr(d.FilledAt),
		CancelledAt:    utcPtr(d.CancelledAt),
		ExpiresAt:      utcPtr(d.ExpiresAt),
	}
}

// ToDomainExchangeOrder converts a model ExchangeOrder to a domain ExchangeOrder
func ToDomainExchangeOrder(m models.ExchangeOrder) domain.ExchangeOrder {
	return domain.ExchangeOrder{
		OrderID:        m.OrderID,
		UserID:         m.UserID,
		Side:           domain.Side(m.Side),
		OrderType:      domain.OrderType(m.OrderType),
		InputAmount:    m.InputAmount,
		InputCurrency:  domain.Currency(m.InputCurrency),
		LimitPrice:     fromNullDecimal(m.LimitPrice),
		ExecutionPrice: fromNullDecimal(m.ExecutionPrice),
		AmountBase:     m.AmountBase,
		AmountQuote:    m.AmountQuote,
		FeeBase:        m.FeeBase,
		FeeQuote:       m.FeeQuote,
		Status:         domain.OrderStatus(m.Status),
		FailureReason:  m.FailureReason.String,
		CorrelationID:  m.CorrelationID,
		CreatedAt:      m.CreatedAt,
		FilledAt:       m.FilledAt,
		CancelledAt:    m.CancelledAt,
		ExpiresAt:      m.ExpiresAt,
	}
}

// ToDomainExchangeOrders converts a slice of model orders.
func ToDomainExchangeOrders(ms []models.ExchangeOrder) []domain.ExchangeOrder {
	out := make([]domain.ExchangeOrder, len(ms))
	for i, m := range ms {
		out[i] = ToDomainExchangeOrder(m)
	}
	return out
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

// NullableText maps the empty string to SQL NULL.
func NullableText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
