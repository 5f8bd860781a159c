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
	"github.com/SscSPs/exchange_engine/internal/utils/accounting"
)

// ExecutionStrategy selects how an Executor makes its writes atomic.
type ExecutionStrategy string

const (
	// StrategyAuto picks StrategyTransactional when the store offers a unit of work.
	StrategyAuto ExecutionStrategy = "auto"
	// StrategyTransactional runs every write of an execution in one store transaction.
	StrategyTransactional ExecutionStrategy = "transactional"
	// StrategyCompareAndSwap runs the writes one by one and compensates on failure.
	StrategyCompareAndSwap ExecutionStrategy = "cas"
)

// ParseExecutionStrategy validates a configured strategy name.
func ParseExecutionStrategy(s string) (ExecutionStrategy, error) {
	switch ExecutionStrategy(s) {
	case StrategyAuto, StrategyTransactional, StrategyCompareAndSwap:
		return ExecutionStrategy(s), nil
	case "":
		return StrategyAuto, nil
	}
	return "", fmt.Errorf("unknown execution strategy '%s'", s)
}

// ErrOrderNotPending is returned by Executor.Fill when another invocation already claimed the order.
var ErrOrderNotPending = fmt.Errorf("%w: order is no longer pending", apperrors.ErrInvalidState)

// Settlement is a balance change that does not claim an existing order: a market order
// inserted already filled, or a funding adjustment when Order is nil.
type Settlement struct {
	Order    *domain.ExchangeOrder
	Expected domain.Balance
	Entries  []domain.LedgerEntry
}

// FillRequest claims a pending limit order and applies its balance change.
type FillRequest struct {
	Order    domain.ExchangeOrder
	Fill     domain.FillDetails
	Expected domain.Balance
	Entries  []domain.LedgerEntry
}

// Executor applies an order's effects (order row, balance, ledger) as one logical unit.
// The balance write is a compare-and-swap against Expected; a lost race returns apperrors.ErrConflict.
type Executor interface {
	Settle(ctx context.Context, s Settlement) (*domain.Balance, error)
	Fill(ctx context.Context, f FillRequest) (*domain.Balance, error)
	Strategy() ExecutionStrategy
}

// NewExecutor returns the executor for strategy. With StrategyAuto the choice depends on whether
// repos exposes a unit of work.
func NewExecutor(repos portsrepo.RepositoryProvider, strategy ExecutionStrategy, opts ...ServiceOption) (Executor, error) {
	cfg := newServiceConfig(opts)

	if strategy == StrategyAuto || strategy == "" {
		strategy = StrategyCompareAndSwap
		if repos.UnitOfWork != nil {
			strategy = StrategyTransactional
		}
	}

	switch strategy {
	case StrategyTransactional:
		if repos.UnitOfWork == nil {
			return nil, errors.New("transactional execution requires a store with a unit of work")
		}
		return &transactionalExecutor{BaseService: cfg.base(), uow: repos.UnitOfWork}, nil
	case StrategyCompareAndSwap:
		return &compareAndSwapExecutor{BaseService: cfg.base(), repos: repos}, nil
	}
	return nil, fmt.Errorf("unknown execution strategy '%s'", strategy)
}

// nextBalance checks the journal and derives the balance it produces. It rejects any change
// that would drive a field below zero before anything is written.
func nextBalance(expected domain.Balance, entries []domain.LedgerEntry, at time.Time) (domain.Balance, error) {
	if err := accounting.ValidateJournalBalance(entries); err != nil {
		return domain.Balance{}, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	next := expected.Apply(accounting.AccountDelta(entries, expected.UserID), at)
	if !next.IsNonNegative() {
		return domain.Balance{}, fmt.Errorf("%w: user '%s' holds %s base and %s quote",
			apperrors.ErrInsufficientBalance, expected.UserID, expected.BaseBalance, expected.QuoteBalance)
	}
	return next, nil
}

type transactionalExecutor struct {
	BaseService
	uow portsrepo.UnitOfWork
}

func (e *transactionalExecutor) Strategy() ExecutionStrategy {
	return StrategyTransactional
}

func (e *transactionalExecutor) Settle(ctx context.Context, s Settlement) (*domain.Balance, error) {
	next, err := nextBalance(s.Expected, s.Entries, e.Now())
	if err != nil {
		return nil, err
	}

	err = e.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if s.Order != nil {
			if err := repos.OrderRepo.SaveOrder(ctx, *s.Order); err != nil {
				return fmt.Errorf("failed to save order: %w", err)
			}
		}
		if err := repos.BalanceRepo.CompareAndSwapBalance(ctx, s.Expected, next); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		if err := repos.LedgerRepo.AppendEntries(ctx, s.Entries); err != nil {
			return fmt.Errorf("failed to append ledger entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (e *transactionalExecutor) Fill(ctx context.Context, f FillRequest) (*domain.Balance, error) {
	next, err := nextBalance(f.Expected, f.Entries, e.Now())
	if err != nil {
		return nil, err
	}

	fill := f.Fill
	err = e.uow.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		claimed, err := repos.OrderRepo.TransitionOrder(ctx, domain.StatusChange{
			OrderID: f.Order.OrderID,
			From:    domain.Pending,
			To:      domain.Filled,
			At:      fill.FilledAt,
			Fill:    &fill,
		})
		if err != nil {
			return fmt.Errorf("failed to claim order: %w", err)
		}
		if !claimed {
			return ErrOrderNotPending
		}
		if err := repos.BalanceRepo.CompareAndSwapBalance(ctx, f.Expected, next); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		if err := repos.LedgerRepo.AppendEntries(ctx, f.Entries); err != nil {
			return fmt.Errorf("failed to append ledger entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// compareAndSwapExecutor is the fallback for stores without transactions. Each step is a single
// conditional write and every failure after the first write is compensated.
type compareAndSwapExecutor struct {
	BaseService
	repos portsrepo.RepositoryProvider
}

func (e *compareAndSwapExecutor) Strategy() ExecutionStrategy {
	return StrategyCompareAndSwap
}

func (e *compareAndSwapExecutor) Settle(ctx context.Context, s Settlement) (*domain.Balance, error) {
	next, err := nextBalance(s.Expected, s.Entries, e.Now())
	if err != nil {
		return nil, err
	}

	if s.Order != nil {
		if err := e.repos.OrderRepo.SaveOrder(ctx, *s.Order); err != nil {
			return nil, fmt.Errorf("failed to save order: %w", err)
		}
	}

	if err := e.repos.BalanceRepo.CompareAndSwapBalance(ctx, s.Expected, next); err != nil {
		e.compensateOrder(ctx, s.Order, domain.Filled, domain.Failed, "balance update failed: "+err.Error())
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := e.repos.LedgerRepo.AppendEntries(ctx, s.Entries); err != nil {
		e.restoreBalance(ctx, next, s.Expected)
		e.compensateOrder(ctx, s.Order, domain.Filled, domain.Failed, "ledger write failed: "+err.Error())
		return nil, fmt.Errorf("failed to append ledger entries: %w", err)
	}
	return &next, nil
}

func (e *compareAndSwapExecutor) Fill(ctx context.Context, f FillRequest) (*domain.Balance, error) {
	next, err := nextBalance(f.Expected, f.Entries, e.Now())
	if err != nil {
		return nil, err
	}

	fill := f.Fill
	claimed, err := e.repos.OrderRepo.TransitionOrder(ctx, domain.StatusChange{
		OrderID: f.Order.OrderID,
		From:    domain.Pending,
		To:      domain.Filled,
		At:      fill.FilledAt,
		Fill:    &fill,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim order: %w", err)
	}
	if !claimed {
		return nil, ErrOrderNotPending
	}

	if err := e.repos.BalanceRepo.CompareAndSwapBalance(ctx, f.Expected, next); err != nil {
		e.compensateOrder(ctx, &f.Order, domain.Filled, domain.Pending, "balance update failed: "+err.Error())
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := e.repos.LedgerRepo.AppendEntries(ctx, f.Entries); err != nil {
		e.restoreBalance(ctx, next, f.Expected)
		e.compensateOrder(ctx, &f.Order, domain.Filled, domain.Pending, "ledger write failed: "+err.Error())
		return nil, fmt.Errorf("failed to append ledger entries: %w", err)
	}
	return &next, nil
}

// compensateOrder moves an order out of the status a failed execution left it in.
// Reopening a filled order is only ever done here, and always audited.
func (e *compareAndSwapExecutor) compensateOrder(ctx context.Context, order *domain.ExchangeOrder, from, to domain.OrderStatus, reason string) {
	if order == nil {
		return
	}
	applied, err := e.repos.OrderRepo.TransitionOrder(ctx, domain.StatusChange{
		OrderID: order.OrderID,
		From:    from,
		To:      to,
		At:      e.Now(),
		Reason:  reason,
	})

	entry := domain.AuditEntry{
		Action:       "order.rollback",
		ResourceType: "exchange_order",
		ResourceID:   order.OrderID,
		UserID:       order.UserID,
		OldValues:    map[string]any{"status": from},
		NewValues:    map[string]any{"status": to, "reason": reason},
		Severity:     domain.SeverityWarn,
	}
	if err != nil || !applied {
		entry.Action = "order.rollback_failed"
		entry.Severity = domain.SeverityError
		if err != nil {
			entry.NewValues["error"] = err.Error()
			e.LogError(ctx, err, "Failed to roll back order", slog.String("order_id", order.OrderID))
		}
	}
	e.Audit(ctx, entry)
}

// restoreBalance undoes a balance write whose ledger entries could not be stored.
func (e *compareAndSwapExecutor) restoreBalance(ctx context.Context, written, original domain.Balance) {
	restored := original
	restored.UpdatedAt = e.Now()
	if err := e.repos.BalanceRepo.CompareAndSwapBalance(ctx, written, restored); err != nil {
		e.LogError(ctx, err, "Failed to restore balance after ledger failure", slog.String("user_id", original.UserID))
		e.Audit(ctx, domain.AuditEntry{
			Action:       "balance.restore_failed",
			ResourceType: "balance",
			ResourceID:   original.UserID,
			UserID:       original.UserID,
			OldValues:    map[string]any{"base": written.BaseBalance.String(), "quote": written.QuoteBalance.String()},
			NewValues:    map[string]any{"base": original.BaseBalance.String(), "quote": original.QuoteBalance.String(), "error": err.Error()},
			Severity:     domain.SeverityError,
		})
	}
}
