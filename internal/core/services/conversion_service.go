package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/SscSPs/exchange_engine/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type conversionService struct {
	BaseService
	balances        portsrepo.BalanceReader
	price           portssvc.PriceSvc
	executor        Executor
	params          domain.ExchangeParams
	conflictRetries int
}

// NewConversionService creates the immediate-fill conversion engine.
func NewConversionService(balances portsrepo.BalanceReader, price portssvc.PriceSvc, executor Executor, params domain.ExchangeParams, opts ...ServiceOption) portssvc.ConversionSvc {
	cfg := newServiceConfig(opts)
	return &conversionService{
		BaseService:     cfg.base(),
		balances:        balances,
		price:           price,
		executor:        executor,
		params:          params,
		conflictRetries: cfg.conflictRetries,
	}
}

var _ portssvc.ConversionSvc = (*conversionService)(nil)

func (s *conversionService) Convert(ctx context.Context, userID string, req dto.ConvertRequest) (*portssvc.ConversionResult, error) {
	ctx, correlationID := audit.EnsureCorrelationID(ctx)
	start := s.Now()

	if err := validateOrderInput(req.Side, req.InputAmount, req.InputCurrency); err != nil {
		return nil, err
	}

	fresh, err := s.price.CheckFreshness(ctx)
	if err != nil {
		return nil, err
	}

	trade, err := priceWithinBounds(req.Side, req.InputAmount, req.InputCurrency, fresh.CurrentPrice, s.params.FeeRate(domain.Market), s.params)
	if err != nil {
		return nil, err
	}

	if err := staleError(fresh); err != nil {
		s.LogWarn(ctx, "Conversion rejected on stale price",
			slog.String("user_id", userID),
			slog.Float64("age_seconds", fresh.AgeSeconds))
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		balance, err := s.balances.FindBalance(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to read balance: %w", err)
		}
		if !balance.Apply(trade.UserDelta(req.Side), start).IsNonNegative() {
			return nil, fmt.Errorf("%w: converting %s %s needs more than the available balance",
				apperrors.ErrInsufficientBalance, req.InputAmount, req.InputCurrency)
		}

		now := s.Now()
		price := fresh.CurrentPrice
		order := domain.ExchangeOrder{
			OrderID:        uuid.NewString(),
			UserID:         userID,
			Side:           req.Side,
			OrderType:      domain.Market,
			InputAmount:    req.InputAmount,
			InputCurrency:  req.InputCurrency,
			ExecutionPrice: &price,
			AmountBase:     trade.AmountBase,
			AmountQuote:    trade.AmountQuote,
			FeeBase:        trade.FeeBase,
			FeeQuote:       trade.FeeQuote,
			Status:         domain.Filled,
			CorrelationID:  correlationID,
			CreatedAt:      now,
			FilledAt:       &now,
		}

		newBalance, err := s.executor.Settle(ctx, Settlement{
			Order:    &order,
			Expected: *balance,
			Entries:  accounting.TradeJournal(order, now),
		})
		if err == nil {
			s.recordFill(ctx, order, *balance, *newBalance, start, attempt)
			return &portssvc.ConversionResult{Order: order, NewBalance: *newBalance}, nil
		}

		if errors.Is(err, apperrors.ErrConflict) && attempt < s.conflictRetries {
			s.LogDebug(ctx, "Balance changed during conversion, retrying",
				slog.String("user_id", userID),
				slog.Int("attempt", attempt+1))
			continue
		}

		if apperrors.IsInternal(err) {
			s.LogError(ctx, err, "Conversion failed", slog.String("user_id", userID), slog.String("order_id", order.OrderID))
			s.Audit(ctx, domain.AuditEntry{
				Action:       "conversion.failed",
				ResourceType: "exchange_order",
				ResourceID:   order.OrderID,
				UserID:       userID,
				NewValues:    map[string]any{"error": err.Error(), "side": req.Side, "input_amount": req.InputAmount.String()},
				Severity:     domain.SeverityError,
			})
		}
		return nil, err
	}
}

func (s *conversionService) recordFill(ctx context.Context, order domain.ExchangeOrder, before, after domain.Balance, start time.Time, attempt int) {
	s.LogInfo(ctx, "Conversion filled",
		slog.String("order_id", order.OrderID),
		slog.String("user_id", order.UserID),
		slog.String("side", string(order.Side)),
		slog.String("amount_base", order.AmountBase.String()),
		slog.String("amount_quote", order.AmountQuote.String()),
		slog.Int("conflict_retries", attempt))
	s.Audit(ctx, domain.AuditEntry{
		Action:       "conversion.filled",
		ResourceType: "exchange_order",
		ResourceID:   order.OrderID,
		UserID:       order.UserID,
		OldValues:    balanceValues(before),
		NewValues: map[string]any{
			"side":            order.Side,
			"execution_price": order.ExecutionPrice.String(),
			"amount_base":     order.AmountBase.String(),
			"amount_quote":    order.AmountQuote.String(),
			"fee_base":        order.FeeBase.String(),
			"fee_quote":       order.FeeQuote.String(),
			"base_balance":    after.BaseBalance.String(),
			"quote_balance":   after.QuoteBalance.String(),
		},
		Severity: domain.SeverityInfo,
	})
	tags := map[string]string{"side": string(order.Side)}
	s.Metric(ctx, "conversion.duration_ms", elapsedMillis(start, s.Now()), tags)
	s.Metric(ctx, "conversion.volume_quote", order.AmountQuote.InexactFloat64(), tags)
}

func balanceValues(b domain.Balance) map[string]any {
	return map[string]any{
		"base_balance":  b.BaseBalance.String(),
		"quote_balance": b.QuoteBalance.String(),
	}
}

// validateOrderInput applies the input rules shared by conversions and limit orders.
func validateOrderInput(side domain.Side, amount decimal.Decimal, currency domain.Currency) error {
	if !side.Valid() {
		return fmt.Errorf("%w: side must be 'buy' or 'sell'", apperrors.ErrValidation)
	}
	if !currency.Valid() {
		return fmt.Errorf("%w: input currency must be BASE or QUOTE", apperrors.ErrValidation)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: input amount must be positive", apperrors.ErrValidation)
	}
	return nil
}

// priceWithinBounds prices a trade and checks its quote equivalent against the configured bounds.
func priceWithinBounds(side domain.Side, amount decimal.Decimal, currency domain.Currency, price, feeRate decimal.Decimal, params domain.ExchangeParams) (accounting.Trade, error) {
	trade, err := accounting.PriceTrade(side, amount, currency, price, feeRate, params.AmountScale)
	if err != nil {
		return accounting.Trade{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	q := trade.QuoteEquivalent()
	if q.LessThan(params.MinQuoteAmount) || q.GreaterThan(params.MaxQuoteAmount) {
		return accounting.Trade{}, fmt.Errorf("%w: quote amount %s is outside [%s, %s]",
			apperrors.ErrValidation, q, params.MinQuoteAmount, params.MaxQuoteAmount)
	}
	return trade, nil
}
