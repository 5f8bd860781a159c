package services

import (
	"time"

	"github.com/SscSPs/exchange_engine/internal/platform/audit"
	"github.com/shopspring/decimal"
)

const (
	defaultConflictRetries = 3
	defaultSweepBatchSize  = 50
	defaultTopOffenders    = 10
)

var defaultEpsilon = decimal.New(1, -8)

type serviceConfig struct {
	now             func() time.Time
	recorder        *audit.Recorder
	conflictRetries int
	sweepBatchSize  int
	epsilon         decimal.Decimal
	topOffenders    int
}

// ServiceOption is a functional option for configuring the engine services
type ServiceOption func(*serviceConfig)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(c *serviceConfig) {
		c.now = now
	}
}

// WithRecorder sets the audit and metrics recorder.
func WithRecorder(r *audit.Recorder) ServiceOption {
	return func(c *serviceConfig) {
		c.recorder = r
	}
}

// WithConflictRetries bounds how often a lost balance compare-and-swap is retried.
func WithConflictRetries(n int) ServiceOption {
	return func(c *serviceConfig) {
		if n >= 0 {
			c.conflictRetries = n
		}
	}
}

// WithSweepBatchSize caps the number of orders one sweep pass processes.
func WithSweepBatchSize(n int) ServiceOption {
	return func(c *serviceConfig) {
		if n > 0 {
			c.sweepBatchSize = n
		}
	}
}

// WithReconciliationTolerance sets the per-user discrepancy floor and how many offenders a report keeps.
func WithReconciliationTolerance(epsilon decimal.Decimal, topOffenders int) ServiceOption {
	return func(c *serviceConfig) {
		if !epsilon.IsNegative() {
			c.epsilon = epsilon
		}
		if topOffenders > 0 {
			c.topOffenders = topOffenders
		}
	}
}

func newServiceConfig(opts []ServiceOption) serviceConfig {
	cfg := serviceConfig{
		now:             time.Now,
		conflictRetries: defaultConflictRetries,
		sweepBatchSize:  defaultSweepBatchSize,
		epsilon:         defaultEpsilon,
		topOffenders:    defaultTopOffenders,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.recorder == nil {
		cfg.recorder = audit.NewRecorder()
	}
	return cfg
}

func (c serviceConfig) base() BaseService {
	return BaseService{Recorder: c.recorder, now: c.now}
}
