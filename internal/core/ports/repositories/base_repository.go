package repositories

import (
	"context"
)

// UnitOfWork runs a function against repositories bound to a single store transaction.
// If fn returns an error every write made through the bound repositories is discarded.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryProvider) error) error
}
