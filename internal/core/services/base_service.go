package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/exchange_engine/internal/core/domain"
	"github.com/SscSPs/exchange_engine/internal/middleware"
	"github.com/SscSPs/exchange_engine/internal/platform/audit"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Recorder *audit.Recorder
	now      func() time.Time
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// Audit records a state-changing action.
func (s *BaseService) Audit(ctx context.Context, entry domain.AuditEntry) {
	if s.Recorder != nil {
		s.Recorder.LogAudit(ctx, entry)
	}
}

// Metric records a numeric observation.
func (s *BaseService) Metric(ctx context.Context, name string, value float64, tags map[string]string) {
	if s.Recorder != nil {
		s.Recorder.LogMetric(ctx, name, value, tags)
	}
}

// Now returns the service clock's current time in UTC.
func (s *BaseService) Now() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

func elapsedMillis(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000
}
