package pgsql

import (
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every repository over the pool and exposes the pool's
// transactions as the unit of work.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	repos := bind(dbPool, dbPool)
	repos.UnitOfWork = &unitOfWork{BaseRepository: BaseRepository{Pool: dbPool, DB: dbPool}}
	return repos
}

// bind builds repositories issuing their queries through db.
func bind(pool *pgxpool.Pool, db dbtx) portsrepo.RepositoryProvider {
	base := BaseRepository{Pool: pool, DB: db}
	return portsrepo.RepositoryProvider{
		BalanceRepo:        newPgxBalanceRepository(base),
		OrderRepo:          newPgxOrderRepository(base),
		LedgerRepo:         newPgxLedgerRepository(base),
		RateSnapshotRepo:   newPgxRateSnapshotRepository(base),
		AuditRepo:          newPgxAuditRepository(base),
		ReconciliationRepo: newPgxReconciliationRepository(base),
	}
}
