package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

var errNotFound = apperrors.ErrNotFound

type balanceRepository struct{ access }

func (r *balanceRepository) FindBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	var out *domain.Balance
	err := r.with("FindBalance", func(st *state) error {
		b, ok := st.balances[userID]
		if !ok {
			return notFound("balance for user", userID)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *balanceRepository) ListBalances(ctx context.Context) ([]domain.Balance, error) {
	var out []domain.Balance
	err := r.with("ListBalances", func(st *state) error {
		for _, b := range st.balances {
			out = append(out, b)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.Balance) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, err
}

func (r *balanceRepository) CreateBalance(ctx context.Context, balance domain.Balance) error {
	return r.with("CreateBalance", func(st *state) error {
		if _, ok := st.balances[balance.UserID]; ok {
			return fmt.Errorf("%w: balance for user '%s'", apperrors.ErrDuplicate, balance.UserID)
		}
		st.balances[balance.UserID] = balance
		return nil
	})
}

func (r *balanceRepository) CompareAndSwapBalance(ctx context.Context, expected, next domain.Balance) error {
	return r.with("CompareAndSwapBalance", func(st *state) error {
		current, ok := st.balances[expected.UserID]
		if !ok {
			return notFound("balance for user", expected.UserID)
		}
		if !current.SameValues(expected) {
			return fmt.Errorf("%w: balance for user '%s' changed since it was read", apperrors.ErrConflict, expected.UserID)
		}
		st.balances[expected.UserID] = next
		return nil
	})
}

type orderRepository struct{ access }

func (r *orderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	var out *domain.ExchangeOrder
	err := r.with("FindOrderByID", func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return notFound("order", orderID)
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID string, status *domain.OrderStatus, limit int, nextToken *string) ([]domain.ExchangeOrder, *string, error) {
	var cursorAt time.Time
	var cursorID string
	if nextToken != nil && *nextToken != "" {
		var err error
		cursorAt, cursorID, err = pagination.DecodeCursorToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}

	var all []domain.ExchangeOrder
	err := r.with("ListOrdersByUser", func(st *state) error {
		for _, o := range st.orders {
			if o.UserID != userID || (status != nil && o.Status != *status) {
				continue
			}
			all = append(all, o)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	slices.SortFunc(all, newestFirst)

	page := make([]domain.ExchangeOrder, 0, limit)
	for _, o := range all {
		if cursorID != "" && newestFirst(o, domain.ExchangeOrder{CreatedAt: cursorAt, OrderID: cursorID}) <= 0 {
			continue
		}
		page = append(page, o)
		if len(page) == limit+1 {
			break
		}
	}

	var next *string
	if len(page) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		token := pagination.EncodeCursorToken(last.CreatedAt, last.OrderID)
		next = &token
	}
	return page, next, nil
}

func newestFirst(a, b domain.ExchangeOrder) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.OrderID, a.OrderID)
}

func (r *orderRepository) ListEligibleLimitOrders(ctx context.Context, price decimal.Decimal, now time.Time, limit int) ([]domain.ExchangeOrder, error) {
	var out []domain.ExchangeOrder
	err := r.with("ListEligibleLimitOrders", func(st *state) error {
		for _, o := range st.orders {
			if o.Status != domain.Pending || o.IsExpired(now) || !o.Crosses(price) {
				continue
			}
			out = append(out, o)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.ExchangeOrder) int { return -newestFirst(a, b) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *orderRepository) ListExpiredLimitOrders(ctx context.Context, now time.Time, limit int) ([]domain.ExchangeOrder, error) {
	var out []domain.ExchangeOrder
	err := r.with("ListExpiredLimitOrders", func(st *state) error {
		for _, o := range st.orders {
			if o.Status == domain.Pending && o.OrderType == domain.Limit && o.IsExpired(now) {
				out = append(out, o)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.ExchangeOrder) int { return -newestFirst(a, b) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *orderRepository) SaveOrder(ctx context.Context, order domain.ExchangeOrder) error {
	return r.with("SaveOrder", func(st *state) error {
		if _, ok := st.orders[order.OrderID]; ok {
			return fmt.Errorf("%w: order '%s'", apperrors.ErrDuplicate, order.OrderID)
		}
		st.orders[order.OrderID] = order
		return nil
	})
}

func (r *orderRepository) TransitionOrder(ctx context.Context, change domain.StatusChange) (bool, error) {
	applied := false
	err := r.with("TransitionOrder", func(st *state) error {
		o, ok := st.orders[change.OrderID]
		if !ok || o.Status != change.From {
			return nil
		}
		st.orders[change.OrderID] = applyStatusChange(o, change)
		applied = true
		return nil
	})
	return applied, err
}

func applyStatusChange(o domain.ExchangeOrder, change domain.StatusChange) domain.ExchangeOrder {
	o.Status = change.To
	switch change.To {
	case domain.Filled:
		if f := change.Fill; f != nil {
			price, at := f.ExecutionPrice, f.FilledAt
			o.ExecutionPrice = &price
			o.AmountBase, o.AmountQuote = f.AmountBase, f.AmountQuote
			o.FeeBase, o.FeeQuote = f.FeeBase, f.FeeQuote
			o.FilledAt = &at
		}
	case domain.Pending:
		o.ExecutionPrice = nil
		o.FilledAt = nil
		o.FailureReason = change.Reason
	case domain.Cancelled:
		at := change.At
		o.CancelledAt = &at
	default:
		o.FailureReason = change.Reason
	}
	return o
}

type ledgerRepository struct{ access }

func (r *ledgerRepository) AppendEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	return r.with("AppendEntries", func(st *state) error {
		st.ledger = append(st.ledger, entries...)
		return nil
	})
}

func (r *ledgerRepository) SumUserLedgers(ctx context.Context) (map[string]domain.Amounts, error) {
	out := map[string]domain.Amounts{}
	err := r.with("SumUserLedgers", func(st *state) error {
		for _, e := range st.ledger {
			if e.AccountKind != domain.UserAccount {
				continue
			}
			out[e.AccountID] = addEntry(out[e.AccountID], e)
		}
		return nil
	})
	return out, err
}

func (r *ledgerRepository) SumAccountKind(ctx context.Context, kind domain.AccountKind) (domain.Amounts, error) {
	var sum domain.Amounts
	err := r.with("SumAccountKind", func(st *state) error {
		for _, e := range st.ledger {
			if e.AccountKind == kind {
				sum = addEntry(sum, e)
			}
		}
		return nil
	})
	return sum, err
}

func addEntry(a domain.Amounts, e domain.LedgerEntry) domain.Amounts {
	if e.Currency == domain.Base {
		a.Base = a.Base.Add(e.Signed())
	} else {
		a.Quote = a.Quote.Add(e.Signed())
	}
	return a
}

type rateSnapshotRepository struct{ access }

func (r *rateSnapshotRepository) FindRateSnapshot(ctx context.Context, symbol string) (*domain.RateSnapshot, error) {
	var out *domain.RateSnapshot
	err := r.with("FindRateSnapshot", func(st *state) error {
		s, ok := st.snapshots[symbol]
		if !ok {
			return notFound("rate snapshot", symbol)
		}
		out = &s
		return nil
	})
	return out, err
}

type reconciliationRepository struct{ access }

func (r *reconciliationRepository) FindReport(ctx context.Context, reportDate string) (*domain.ReconciliationReport, error) {
	var out *domain.ReconciliationReport
	err := r.with("FindReport", func(st *state) error {
		rep, ok := st.reports[reportDate]
		if !ok {
			return notFound("reconciliation report", reportDate)
		}
		out = &rep
		return nil
	})
	return out, err
}

func (r *reconciliationRepository) UpsertReport(ctx context.Context, report domain.ReconciliationReport) error {
	return r.with("UpsertReport", func(st *state) error {
		st.reports[report.ReportDate] = report
		return nil
	})
}

type auditRepository struct{ store *Store }

func (r *auditRepository) fault(op string) error {
	hook, err := r.store.takeHooks(op)
	if hook != nil {
		hook()
	}
	return err
}

func (r *auditRepository) SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	if err := r.fault("SaveAuditEntry"); err != nil {
		return err
	}
	r.store.recordsMu.Lock()
	defer r.store.recordsMu.Unlock()
	r.store.audits = append(r.store.audits, entry)
	return nil
}

func (r *auditRepository) SaveMetric(ctx context.Context, metric domain.MetricEvent) error {
	if err := r.fault("SaveMetric"); err != nil {
		return err
	}
	r.store.recordsMu.Lock()
	defer r.store.recordsMu.Unlock()
	r.store.metrics = append(r.store.metrics, metric)
	return nil
}

func (r *auditRepository) SaveRequestLog(ctx context.Context, log domain.RequestLog) error {
	if err := r.fault("SaveRequestLog"); err != nil {
		return err
	}
	r.store.recordsMu.Lock()
	defer r.store.recordsMu.Unlock()
	r.store.requests = append(r.store.requests, log)
	return nil
}
