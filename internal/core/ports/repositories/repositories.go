package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	BalanceRepo        BalanceRepositoryFacade
	OrderRepo          OrderRepositoryFacade
	LedgerRepo         LedgerRepositoryFacade
	RateSnapshotRepo   RateSnapshotReader
	AuditRepo          AuditWriter
	ReconciliationRepo ReconciliationRepositoryFacade

	// UnitOfWork is nil when the backing store offers no transactional primitive,
	// and inside a transaction.
	UnitOfWork UnitOfWork
}
