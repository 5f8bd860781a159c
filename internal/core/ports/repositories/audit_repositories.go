package repositories

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
)

// AuditWriter persists the append-only observability records.
type AuditWriter interface {
	SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error
	SaveMetric(ctx context.Context, metric domain.MetricEvent) error
	SaveRequestLog(ctx context.Context, log domain.RequestLog) error
}
