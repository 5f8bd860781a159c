package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchange_engine/internal/core/ports/services"
	"github.com/SscSPs/exchange_engine/internal/core/services"
	"github.com/SscSPs/exchange_engine/internal/dto"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/SscSPs/exchange_engine/internal/repositories/memory"
	"github.com/shopspring/decimal"
)

const testSymbol = "BASE/QUOTE"

var testParams = domain.ExchangeParams{
	MarketFeeRate:  decimal.RequireFromString("0.01"),
	LimitFeeRate:   decimal.RequireFromString("0.02"),
	MinQuoteAmount: decimal.NewFromInt(1),
	MaxQuoteAmount: decimal.NewFromInt(100000),
	AmountScale:    8,
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// engine wires every service over one memory store.
type engine struct {
	store      *memory.Store
	repos      portsrepo.RepositoryProvider
	clock      *testClock
	executor   services.Executor
	price      portssvc.PriceSvc
	balance    portssvc.BalanceSvcFacade
	conversion portssvc.ConversionSvc
	order      portssvc.OrderSvcFacade
	sweep      portssvc.SweepSvc
	recon      portssvc.ReconciliationSvcFacade
}

func newEngine(withUnitOfWork bool, extra ...services.ServiceOption) *engine {
	store := memory.NewStore()
	repos := store.Provider(withUnitOfWork)
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	recorder := audit.NewRecorder(
		audit.WithStore(repos.AuditRepo),
		audit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		audit.WithClock(clock.Now),
	)
	opts := append([]services.ServiceOption{services.WithClock(clock.Now), services.WithRecorder(recorder)}, extra...)

	executor, err := services.NewExecutor(repos, services.StrategyAuto, opts...)
	if err != nil {
		panic(err)
	}
	price := services.NewPriceService(repos.RateSnapshotRepo, testSymbol, 30*time.Second, opts...)

	return &engine{
		store:      store,
		repos:      repos,
		clock:      clock,
		executor:   executor,
		price:      price,
		balance:    services.NewBalanceService(repos.BalanceRepo, executor, testParams, opts...),
		conversion: services.NewConversionService(repos.BalanceRepo, price, executor, testParams, opts...),
		order:      services.NewOrderService(repos.OrderRepo, repos.BalanceRepo, testParams, opts...),
		sweep:      services.NewSweepService(repos.OrderRepo, repos.BalanceRepo, price, executor, testParams, opts...),
		recon:      services.NewReconciliationService(repos.BalanceRepo, repos.LedgerRepo, repos.ReconciliationRepo, opts...),
	}
}

func (e *engine) setPrice(price string, age time.Duration) {
	e.store.SetRateSnapshot(testSymbol, dec(price), e.clock.Now().Add(-age))
}

func (e *engine) fund(userID, base, quote string) {
	_, err := e.balance.Deposit(context.Background(), userID, dto.DepositRequest{Base: dec(base), Quote: dec(quote)}, "test")
	if err != nil {
		panic(err)
	}
}

func (e *engine) balanceOf(userID string) domain.Balance {
	return e.store.Balances()[userID]
}

func (e *engine) ordersWithStatus(status domain.OrderStatus) []domain.ExchangeOrder {
	var out []domain.ExchangeOrder
	for _, o := range e.store.Orders() {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

func (e *engine) entriesFor(orderID string) []domain.LedgerEntry {
	var out []domain.LedgerEntry
	for _, entry := range e.store.LedgerEntries() {
		if entry.OrderID == orderID {
			out = append(out, entry)
		}
	}
	return out
}

func (e *engine) auditActions() []string {
	var out []string
	for _, a := range e.store.AuditEntries() {
		out = append(out, a.Action)
	}
	return out
}

func (e *engine) auditsWith(action string) []domain.AuditEntry {
	var out []domain.AuditEntry
	for _, a := range e.store.AuditEntries() {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}

// holdings sums every account kind per currency: user balances from the balance rows, the
// platform accounts from the ledger.
func (e *engine) holdings(kinds ...domain.AccountKind) domain.Amounts {
	total := domain.Amounts{Base: decimal.Zero, Quote: decimal.Zero}
	for _, b := range e.store.Balances() {
		total = total.Add(b.Amounts())
	}
	for _, kind := range kinds {
		sum, err := e.repos.LedgerRepo.SumAccountKind(context.Background(), kind)
		if err != nil {
			panic(err)
		}
		total = total.Add(sum)
	}
	return total
}

// strategies runs a suite once per executor strategy.
var strategies = []struct {
	name           string
	withUnitOfWork bool
}{
	{"Transactional", true},
	{"CompareAndSwap", false},
}
