package models

import (
	"database/sql"
	"time"
)

// AuditLog is one row of audit_log. Old/new values are stored as JSONB.
type AuditLog struct {
	AuditID       string         `db:"audit_id"`
	Action        string         `db:"action"`
	ResourceType  string         `db:"resource_type"`
	ResourceID    sql.NullString `db:"resource_id"`
	OldValues     []byte         `db:"old_values"`
	NewValues     []byte         `db:"new_values"`
	Severity      string         `db:"severity"`
	CorrelationID string         `db:"correlation_id"`
	UserID        sql.NullString `db:"user_id"`
	CreatedAt     time.Time      `db:"created_at"`
}

// MetricEvent is one row of metric_events.
type MetricEvent struct {
	Name          string    `db:"name"`
	Value         float64   `db:"value"`
	Tags          []byte    `db:"tags"`
	CorrelationID string    `db:"correlation_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// RequestLog is one row of request_logs.
type RequestLog struct {
	CorrelationID string         `db:"correlation_id"`
	Method        string         `db:"method"`
	Path          string         `db:"path"`
	StatusCode    int            `db:"status_code"`
	Error         sql.NullString `db:"error"`
	UserID        sql.NullString `db:"user_id"`
	RequestSize   int64          `db:"request_size"`
	ResponseSize  int64          `db:"response_size"`
	DurationMS    float64        `db:"duration_ms"`
	CreatedAt     time.Time      `db:"created_at"`
}
