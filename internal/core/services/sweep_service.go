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
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/SscSPs/exchange_engine/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

type sweepService struct {
	BaseService
	orders          portsrepo.OrderRepositoryFacade
	balances        portsrepo.BalanceReader
	price           portssvc.PriceSvc
	executor        Executor
	params          domain.ExchangeParams
	batchSize       int
	conflictRetries int
}

// NewSweepService creates the limit order sweep.
func NewSweepService(orders portsrepo.OrderRepositoryFacade, balances portsrepo.BalanceReader, price portssvc.PriceSvc, executor Executor, params domain.ExchangeParams, opts ...ServiceOption) portssvc.SweepSvc {
	cfg := newServiceConfig(opts)
	return &sweepService{
		BaseService:     cfg.base(),
		orders:          orders,
		balances:        balances,
		price:           price,
		executor:        executor,
		params:          params,
		batchSize:       cfg.sweepBatchSize,
		conflictRetries: cfg.conflictRetries,
	}
}

var _ portssvc.SweepSvc = (*sweepService)(nil)

type orderOutcome int

const (
	outcomeFilled orderOutcome = iota
	outcomeSkipped
	outcomeExpired
	outcomeFailed
	outcomeConflicted
)

// Sweep runs one pass: it retires expired orders, then executes every crossing order of the
// batch against the current price. Overlapping passes are safe; the conditional
// pending -> filled transition decides which pass fills an order.
func (s *sweepService) Sweep(ctx context.Context, triggerSource string) (*portssvc.SweepResult, error) {
	ctx, _ = audit.EnsureCorrelationID(ctx)
	start := s.Now()
	logger := s.GetLogger(ctx).With(slog.String("trigger_source", triggerSource))

	fresh, err := s.price.RequireFresh(ctx)
	if err != nil {
		return nil, err
	}
	result := &portssvc.SweepResult{CurrentPrice: *fresh}

	expired, err := s.orders.ListExpiredLimitOrders(ctx, start, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired orders: %w", err)
	}
	for _, order := range expired {
		if s.expire(ctx, order) {
			result.Expired++
		}
	}

	candidates, err := s.orders.ListEligibleLimitOrders(ctx, fresh.CurrentPrice, start, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible orders: %w", err)
	}
	result.TotalCandidates = len(candidates)

	for _, order := range candidates {
		switch s.process(ctx, order, fresh.CurrentPrice) {
		case outcomeFilled:
			result.ProcessedOrders++
		case outcomeSkipped:
			result.Skipped++
		case outcomeExpired:
			result.Expired++
		case outcomeFailed:
			result.Failed++
		case outcomeConflicted:
			result.Conflicted++
		}
	}

	tags := map[string]string{"trigger_source": triggerSource}
	s.Metric(ctx, "sweep.duration_ms", elapsedMillis(start, s.Now()), tags)
	s.Metric(ctx, "sweep.processed_orders", float64(result.ProcessedOrders), tags)
	s.Metric(ctx, "sweep.total_candidates", float64(result.TotalCandidates), tags)

	logger.Info("Sweep completed",
		slog.Int("processed", result.ProcessedOrders),
		slog.Int("candidates", result.TotalCandidates),
		slog.Int("expired", result.Expired),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Int("conflicted", result.Conflicted),
		slog.String("price", fresh.CurrentPrice.String()))
	return result, nil
}

func (s *sweepService) process(ctx context.Context, order domain.ExchangeOrder, price decimal.Decimal) orderOutcome {
	start := s.Now()
	if order.IsExpired(start) {
		if s.expire(ctx, order) {
			return outcomeExpired
		}
		return outcomeSkipped
	}
	if !order.Crosses(price) {
		return outcomeSkipped
	}

	trade, err := accounting.PriceTrade(order.Side, order.InputAmount, order.InputCurrency, price, s.params.FeeRate(order.OrderType), s.params.AmountScale)
	if err != nil {
		return s.fail(ctx, order, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
	}

	for attempt := 0; ; attempt++ {
		balance, err := s.balances.FindBalance(ctx, order.UserID)
		if err != nil {
			return s.fail(ctx, order, fmt.Errorf("failed to read balance: %w", err))
		}

		now := s.Now()
		fill := domain.FillDetails{
			ExecutionPrice: price,
			AmountBase:     trade.AmountBase,
			AmountQuote:    trade.AmountQuote,
			FeeBase:        trade.FeeBase,
			FeeQuote:       trade.FeeQuote,
			FilledAt:       now,
		}
		filled := withFill(order, fill)

		newBalance, err := s.executor.Fill(ctx, FillRequest{
			Order:    order,
			Fill:     fill,
			Expected: *balance,
			Entries:  accounting.TradeJournal(filled, now),
		})
		switch {
		case err == nil:
			s.recordFill(ctx, filled, *newBalance, start)
			return outcomeFilled
		case errors.Is(err, ErrOrderNotPending):
			s.LogDebug(ctx, "Order already claimed by another sweep", slog.String("order_id", order.OrderID))
			return outcomeSkipped
		case errors.Is(err, apperrors.ErrConflict) && attempt < s.conflictRetries:
			continue
		case errors.Is(err, apperrors.ErrConflict):
			s.LogWarn(ctx, "Balance kept changing, leaving order pending",
				slog.String("order_id", order.OrderID),
				slog.Int("attempts", attempt+1))
			s.Audit(ctx, domain.AuditEntry{
				Action:       "order.fill_conflict",
				ResourceType: "exchange_order",
				ResourceID:   order.OrderID,
				UserID:       order.UserID,
				NewValues:    map[string]any{"status": domain.Pending, "error": err.Error()},
				Severity:     domain.SeverityWarn,
			})
			return outcomeConflicted
		default:
			return s.fail(ctx, order, err)
		}
	}
}

// expire moves a pending order past its expiry to expired.
func (s *sweepService) expire(ctx context.Context, order domain.ExchangeOrder) bool {
	applied, err := s.orders.TransitionOrder(ctx, domain.StatusChange{
		OrderID: order.OrderID,
		From:    domain.Pending,
		To:      domain.Expired,
		At:      s.Now(),
		Reason:  "expired",
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to expire order", slog.String("order_id", order.OrderID))
		return false
	}
	if !applied {
		return false
	}
	s.Audit(ctx, domain.AuditEntry{
		Action:       "order.expired",
		ResourceType: "exchange_order",
		ResourceID:   order.OrderID,
		UserID:       order.UserID,
		OldValues:    map[string]any{"status": domain.Pending},
		NewValues:    map[string]any{"status": domain.Expired, "expires_at": order.ExpiresAt},
		Severity:     domain.SeverityInfo,
	})
	return true
}

// fail marks an order that could not be executed as failed so it does not stay pending forever.
func (s *sweepService) fail(ctx context.Context, order domain.ExchangeOrder, cause error) orderOutcome {
	s.LogError(ctx, cause, "Limit order execution failed", slog.String("order_id", order.OrderID))

	entry := domain.AuditEntry{
		Action:       "order.failed",
		ResourceType: "exchange_order",
		ResourceID:   order.OrderID,
		UserID:       order.UserID,
		OldValues:    map[string]any{"status": domain.Pending},
		NewValues:    map[string]any{"status": domain.Failed, "reason": cause.Error()},
		Severity:     domain.SeverityError,
	}
	applied, err := s.orders.TransitionOrder(ctx, domain.StatusChange{
		OrderID: order.OrderID,
		From:    domain.Pending,
		To:      domain.Failed,
		At:      s.Now(),
		Reason:  cause.Error(),
	})
	if err != nil || !applied {
		entry.Action = "order.fail_unrecorded"
		if err != nil {
			entry.NewValues["error"] = err.Error()
		}
	}
	s.Audit(ctx, entry)
	return outcomeFailed
}

func (s *sweepService) recordFill(ctx context.Context, order domain.ExchangeOrder, balance domain.Balance, start time.Time) {
	s.LogInfo(ctx, "Limit order filled",
		slog.String("order_id", order.OrderID),
		slog.String("user_id", order.UserID),
		slog.String("execution_price", order.ExecutionPrice.String()))
	s.Audit(ctx, domain.AuditEntry{
		Action:       "order.filled",
		ResourceType: "exchange_order",
		ResourceID:   order.OrderID,
		UserID:       order.UserID,
		OldValues:    map[string]any{"status": domain.Pending},
		NewValues: map[string]any{
			"status":          domain.Filled,
			"side":            order.Side,
			"execution_price": order.ExecutionPrice.String(),
			"limit_price":     order.LimitPrice.String(),
			"amount_base":     order.AmountBase.String(),
			"amount_quote":    order.AmountQuote.String(),
			"fee_base":        order.FeeBase.String(),
			"fee_quote":       order.FeeQuote.String(),
			"base_balance":    balance.BaseBalance.String(),
			"quote_balance":   balance.QuoteBalance.String(),
		},
		Severity: domain.SeverityInfo,
	})
	s.Metric(ctx, "order.fill_duration_ms", elapsedMillis(start, s.Now()), map[string]string{"side": string(order.Side)})
}

func withFill(order domain.ExchangeOrder, fill domain.FillDetails) domain.ExchangeOrder {
	price, at := fill.ExecutionPrice, fill.FilledAt
	order.Status = domain.Filled
	order.ExecutionPrice = &price
	order.AmountBase, order.AmountQuote = fill.AmountBase, fill.AmountQuote
	order.FeeBase, order.FeeQuote = fill.FeeBase, fill.FeeQuote
	order.FilledAt = &at
	return order
}
