package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_engine/internal/core/ports/repositories"
	"github.com/google/uuid"
)

const defaultWriteTimeout = 2 * time.Second

// EventSink receives audit entries as product analytics events.
type EventSink interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}

// Recorder writes request logs, audit entries and metric events.
// None of its methods return errors: a record that cannot be written is logged and dropped.
type Recorder struct {
	store        portsrepo.AuditWriter
	metrics      *Metrics
	events       EventSink
	logger       *slog.Logger
	writeTimeout time.Duration
	now          func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithStore persists records through w.
func WithStore(w portsrepo.AuditWriter) Option {
	return func(r *Recorder) {
		r.store = w
	}
}

// WithMetrics mirrors records into prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithEventSink forwards audit entries carrying a user id to an analytics sink.
func WithEventSink(s EventSink) Option {
	return func(r *Recorder) {
		r.events = s
	}
}

// WithLogger sets the logger records are echoed to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a Recorder with the provided options.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		logger:       slog.Default(),
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UnmatchedRoute is the path label for requests that matched no route.
// Raw paths stay out of metric labels.
const UnmatchedRoute = "unmatched"

// LogRequest records the outcome of one inbound operation.
func (r *Recorder) LogRequest(ctx context.Context, entry domain.RequestLog) {
	defer r.recoverPanic("request")

	if entry.CorrelationID == "" {
		entry.CorrelationID = CorrelationID(ctx)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}

	level := slog.LevelInfo
	if entry.StatusCode >= 500 {
		level = slog.LevelError
	} else if entry.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	r.logger.Log(ctx, level, "Request completed",
		slog.String("correlation_id", entry.CorrelationID),
		slog.String("method", entry.Method),
		slog.String("path", entry.Path),
		slog.Int("status", entry.StatusCode),
		slog.Duration("latency", entry.Duration),
		slog.String("error", entry.Error),
	)

	if r.metrics != nil {
		route := entry.Route
		if route == "" {
			route = UnmatchedRoute
		}
		r.metrics.RequestsTotal.WithLabelValues(entry.Method, route, strconv.Itoa(entry.StatusCode)).Inc()
		r.metrics.RequestDuration.WithLabelValues(entry.Method, route).Observe(entry.Duration.Seconds())
	}

	r.persist(ctx, "request", func(ctx context.Context) error {
		return r.store.SaveRequestLog(ctx, entry)
	})
}

// LogAudit records a state-changing action.
func (r *Recorder) LogAudit(ctx context.Context, entry domain.AuditEntry) {
	defer r.recoverPanic("audit")

	if entry.AuditID == "" {
		entry.AuditID = uuid.NewString()
	}
	if entry.CorrelationID == "" {
		entry.CorrelationID = CorrelationID(ctx)
	}
	if entry.Severity == "" {
		entry.Severity = domain.SeverityInfo
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}

	r.logger.Log(ctx, severityLevel(entry.Severity), "Audit",
		slog.String("correlation_id", entry.CorrelationID),
		slog.String("action", entry.Action),
		slog.String("resource_type", entry.ResourceType),
		slog.String("resource_id", entry.ResourceID),
		slog.String("user_id", entry.UserID),
		slog.Any("new_values", entry.NewValues),
	)

	if r.metrics != nil {
		r.metrics.AuditEntries.WithLabelValues(entry.Action, string(entry.Severity)).Inc()
	}

	if r.events != nil && entry.UserID != "" {
		r.events.Enqueue(entry.UserID, entry.Action, map[string]any{
			"resource_type":  entry.ResourceType,
			"resource_id":    entry.ResourceID,
			"severity":       string(entry.Severity),
			"correlation_id": entry.CorrelationID,
		})
	}

	r.persist(ctx, "audit", func(ctx context.Context) error {
		return r.store.SaveAuditEntry(ctx, entry)
	})
}

// LogMetric records one numeric observation.
func (r *Recorder) LogMetric(ctx context.Context, name string, value float64, tags map[string]string) {
	defer r.recoverPanic("metric")

	event := domain.MetricEvent{
		Name:          name,
		Value:         value,
		Tags:          tags,
		CorrelationID: CorrelationID(ctx),
		Timestamp:     r.now().UTC(),
	}

	r.logger.Debug("Metric",
		slog.String("correlation_id", event.CorrelationID),
		slog.String("name", name),
		slog.Float64("value", value),
	)

	if r.metrics != nil {
		r.metrics.MetricValues.WithLabelValues(name).Observe(value)
	}

	r.persist(ctx, "metric", func(ctx context.Context) error {
		return r.store.SaveMetric(ctx, event)
	})
}

// persist runs write detached from ctx cancellation so a caller that already timed out
// still gets its record written.
func (r *Recorder) persist(ctx context.Context, kind string, write func(ctx context.Context) error) {
	if r.store == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	if err := write(writeCtx); err != nil {
		r.logger.Error("Failed to persist record",
			slog.String("kind", kind),
			slog.String("correlation_id", CorrelationID(ctx)),
			slog.String("error", err.Error()),
		)
		if r.metrics != nil {
			r.metrics.SinkFailures.WithLabelValues(kind).Inc()
		}
	}
}

func (r *Recorder) recoverPanic(kind string) {
	if rec := recover(); rec != nil {
		r.logger.Error("Recovered panic while recording", slog.String("kind", kind), slog.String("panic", fmt.Sprint(rec)))
	}
}

func severityLevel(s domain.Severity) slog.Level {
	switch s {
	case domain.SeverityError:
		return slog.LevelError
	case domain.SeverityWarn:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
