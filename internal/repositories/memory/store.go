// Package memory is a process-local implementation of every repository port, including the unit of work.
// It backs STORE_DRIVER=memory and the engine's invariant tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type state struct {
	balances  map[string]domain.Balance
	orders    map[string]domain.ExchangeOrder
	ledger    []domain.LedgerEntry
	snapshots map[string]domain.RateSnapshot
	reports   map[string]domain.ReconciliationReport
}

func newState() *state {
	return &state{
		balances:  map[string]domain.Balance{},
		orders:    map[string]domain.ExchangeOrder{},
		snapshots: map[string]domain.RateSnapshot{},
		reports:   map[string]domain.ReconciliationReport{},
	}
}

func (s *state) clone() *state {
	return &state{
		balances:  maps.Clone(s.balances),
		orders:    maps.Clone(s.orders),
		ledger:    slices.Clone(s.ledger),
		snapshots: maps.Clone(s.snapshots),
		reports:   maps.Clone(s.reports),
	}
}

// Store holds all state behind a single mutex. A transaction holds the mutex for its whole
// duration and works on a copy that replaces the state on success.
type Store struct {
	mu sync.Mutex
	st *state

	recordsMu sync.Mutex
	audits    []domain.AuditEntry
	metrics   []domain.MetricEvent
	requests  []domain.RequestLog

	hooksMu sync.Mutex
	faults  map[string][]error
	before  map[string][]func()
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		st:     newState(),
		faults: map[string][]error{},
		before: map[string][]func(){},
	}
}

// Provider returns repositories over the store. With withUnitOfWork false the provider
// advertises no transactional primitive, as a store without one would.
func (s *Store) Provider(withUnitOfWork bool) portsrepo.RepositoryProvider {
	p := s.bind(nil)
	if withUnitOfWork {
		p.UnitOfWork = s
	}
	return p
}

func (s *Store) bind(tx *state) portsrepo.RepositoryProvider {
	a := access{store: s, tx: tx}
	return portsrepo.RepositoryProvider{
		BalanceRepo:        &balanceRepository{a},
		OrderRepo:          &orderRepository{a},
		LedgerRepo:         &ledgerRepository{a},
		RateSnapshotRepo:   &rateSnapshotRepository{a},
		AuditRepo:          &auditRepository{s},
		ReconciliationRepo: &reconciliationRepository{a},
	}
}

// WithinTx implements portsrepo.UnitOfWork.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	if err := fn(ctx, s.bind(tx)); err != nil {
		return err
	}
	s.st = tx
	return nil
}

// FailNext makes the next call of op return err. op is the repository method name.
func (s *Store) FailNext(op string, err error) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.faults[op] = append(s.faults[op], err)
}

// BeforeNext runs fn right before the next call of op acquires the store.
// fn must not touch the store when op runs inside a transaction.
func (s *Store) BeforeNext(op string, fn func()) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.before[op] = append(s.before[op], fn)
}

func (s *Store) takeHooks(op string) (func(), error) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()

	var hook func()
	if fns := s.before[op]; len(fns) > 0 {
		hook, s.before[op] = fns[0], fns[1:]
	}
	var err error
	if errs := s.faults[op]; len(errs) > 0 {
		err, s.faults[op] = errs[0], errs[1:]
	}
	return hook, err
}

// access runs operations against either the shared state or a transaction's copy.
type access struct {
	store *Store
	tx    *state
}

func (a access) with(op string, fn func(st *state) error) error {
	hook, fault := a.store.takeHooks(op)
	if hook != nil {
		hook()
	}
	if fault != nil {
		return fault
	}
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.st)
}

// SetRateSnapshot stands in for the external price feed.
func (s *Store) SetRateSnapshot(symbol string, price decimal.Decimal, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.snapshots[symbol] = domain.RateSnapshot{Symbol: symbol, Price: price, UpdatedAt: updatedAt}
}

// SetBalance overwrites a balance row without touching the ledger, as an out-of-band writer would.
func (s *Store) SetBalance(b domain.Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.balances[b.UserID] = b
}

// Balances returns a copy of every balance row.
func (s *Store) Balances() map[string]domain.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.st.balances)
}

// Orders returns a copy of every order.
func (s *Store) Orders() map[string]domain.ExchangeOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.st.orders)
}

// LedgerEntries returns a copy of the ledger in append order.
func (s *Store) LedgerEntries() []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.ledger)
}

// AuditEntries returns a copy of the audit log.
func (s *Store) AuditEntries() []domain.AuditEntry {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()
	return slices.Clone(s.audits)
}

// MetricEvents returns a copy of the recorded metrics.
func (s *Store) MetricEvents() []domain.MetricEvent {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()
	return slices.Clone(s.metrics)
}

// RequestLogs returns a copy of the request log.
func (s *Store) RequestLogs() []domain.RequestLog {
	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()
	return slices.Clone(s.requests)
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s '%s'", errNotFound, what, id)
}
