package mapping

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/models"
)

// ToModelAuditLog converts a domain AuditEntry to a model AuditLog.
// It fails only when the old or new values cannot be encoded as JSON.
func ToModelAuditLog(d domain.AuditEntry) (models.AuditLog, error) {
	oldValues, err := marshalOptional(d.OldValues)
	if err != nil {
		return models.AuditLog{}, fmt.Errorf("encode old values: %w", err)
	}
	newValues, err := marshalOptional(d.NewValues)
	if err != nil {
		return models.AuditLog{}, fmt.Errorf("encode new values: %w", err)
	}
	return models.AuditLog{
		AuditID:       d.AuditID,
		Action:        d.Action,
		ResourceType:  d.ResourceType,
		ResourceID:    NullableText(d.ResourceID),
		OldValues:     oldValues,
		NewValues:     newValues,
		Severity:      string(d.Severity),
		CorrelationID: d.CorrelationID,
		UserID:        NullableText(d.UserID),
		CreatedAt:     d.Timestamp,
	}, nil
}

// ToModelMetricEvent converts a domain MetricEvent to a model MetricEvent
func ToModelMetricEvent(d domain.MetricEvent) (models.MetricEvent, error) {
	var tags []byte
	if len(d.Tags) > 0 {
		var err error
		if tags, err = json.Marshal(d.Tags); err != nil {
			return models.MetricEvent{}, fmt.Errorf("encode tags: %w", err)
		}
	}
	return models.MetricEvent{
		Name:          d.Name,
		Value:         d.Value,
		Tags:          tags,
		CorrelationID: d.CorrelationID,
		CreatedAt:     d.Timestamp,
	}, nil
}

// ToModelRequestLog converts a domain RequestLog to a model RequestLog
func ToModelRequestLog(d domain.RequestLog) models.RequestLog {
	return models.RequestLog{
		CorrelationID: d.CorrelationID,
		Method:        d.Method,
		Path:          d.Path,
		StatusCode:    d.StatusCode,
		Error:         NullableText(d.Error),
		UserID:        NullableText(d.UserID),
		RequestSize:   d.RequestSize,
		ResponseSize:  d.ResponseSize,
		DurationMS:    float64(d.Duration) / float64(time.Millisecond),
		CreatedAt:     d.Timestamp,
	}
}

func marshalOptional(values map[string]any) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return json.Marshal(values)
}
