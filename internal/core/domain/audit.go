package domain

import "time"

// AuditEntry records one state-changing action. Append-only.
type AuditEntry struct {
	AuditID       string         `json:"auditID"`
	Action        string         `json:"action"`
	ResourceType  string         `json:"resourceType"`
	ResourceID    string         `json:"resourceID,omitempty"`
	OldValues     map[string]any `json:"oldValues,omitempty"`
	NewValues     map[string]any `json:"newValues,omitempty"`
	Severity      Severity       `json:"severity"`
	CorrelationID string         `json:"correlationID"`
	UserID        string         `json:"userID,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// MetricEvent is one numeric observation.
type MetricEvent struct {
	Name          string            `json:"name"`
	Value         float64           `json:"value"`
	Tags          map[string]string `json:"tags,omitempty"`
	CorrelationID string            `json:"correlationID"`
	Timestamp     time.Time         `json:"timestamp"`
}

// RequestLog is written exactly once per inbound operation.
type RequestLog struct {
	CorrelationID string `json:"correlationID"`
	Method        string `json:"method"`
	Path          string `json:"path"`
	// Route is the matched route template, empty when no route matched.
	Route        string        `json:"route,omitempty"`
	StatusCode   int           `json:"statusCode"`
	Error        string        `json:"error,omitempty"`
	UserID       string        `json:"userID,omitempty"`
	RequestSize  int64         `json:"requestSize"`
	ResponseSize int64         `json:"responseSize"`
	Duration     time.Duration `json:"duration"`
	Timestamp    time.Time     `json:"timestamp"`
}
