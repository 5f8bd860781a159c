package pgsql

import (
	"context"

	"github.com/SscSPs/exchange_engine/internal/apperrors"
	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/SscSPs/exchange_engine/internal/utils/mapping"
)

// PgxAuditRepository appends to audit_log, metric_events and request_logs.
type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(base BaseRepository) portsrepo.AuditWriter {
	return &PgxAuditRepository{BaseRepository: base}
}

var _ portsrepo.AuditWriter = (*PgxAuditRepository)(nil)

func (r *PgxAuditRepository) SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	m, err := mapping.ToModelAuditLog(entry)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode audit entry "+entry.AuditID, err)
	}
	query := `
		INSERT INTO audit_log (audit_id, action, resource_type, resource_id, old_values, new_values, severity, correlation_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = r.DB.Exec(ctx, query,
		m.AuditID,
		m.Action,
		m.ResourceType,
		m.ResourceID,
		m.OldValues,
		m.NewValues,
		m.Severity,
		m.CorrelationID,
		m.UserID,
		m.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save audit entry "+entry.Action, err)
	}
	return nil
}

func (r *PgxAuditRepository) SaveMetric(ctx context.Context, metric domain.MetricEvent) error {
	m, err := mapping.ToModelMetricEvent(metric)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode metric "+metric.Name, err)
	}
	query := `
		INSERT INTO metric_events (name, value, tags, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := r.DB.Exec(ctx, query, m.Name, m.Value, m.Tags, m.CorrelationID, m.CreatedAt); err != nil {
		return apperrors.NewAppError(500, "failed to save metric "+metric.Name, err)
	}
	return nil
}

func (r *PgxAuditRepository) SaveRequestLog(ctx context.Context, log domain.RequestLog) error {
	m := mapping.ToModelRequestLog(log)
	query := `
		INSERT INTO request_logs (correlation_id, method, path, status_code, error, user_id, request_size, response_size, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.DB.Exec(ctx, query,
		m.CorrelationID,
		m.Method,
		m.Path,
		m.StatusCode,
		m.Error,
		m.UserID,
		m.RequestSize,
		m.ResponseSize,
		m.DurationMS,
		m.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save request log "+log.CorrelationID, err)
	}
	return nil
}
