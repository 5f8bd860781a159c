package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
)

// Rule is a fixed-window budget: at most Limit requests per Window.
type Rule struct {
	Limit  int64
	Window time.Duration
}

// ParseRule parses the "<limit>-<S|M|H|D>" format, e.g. "10-M".
func ParseRule(formatted string) (Rule, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid rate limit %q: %w", formatted, err)
	}
	if rate.Limit <= 0 {
		return Rule{}, fmt.Errorf("invalid rate limit %q: limit must be positive", formatted)
	}
	return Rule{Limit: rate.Limit, Window: rate.Period}, nil
}

func (r Rule) rate() limiter.Rate {
	return limiter.Rate{Period: r.Window, Limit: r.Limit}
}

// Decision is the outcome of a Check.
type Decision struct {
	Allowed   bool
	Remaining int64
	ResetTime time.Time
	Total     int64
}

// RetryAfter is how long a denied caller should wait before the window resets.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.ResetTime.Before(now) {
		return 0
	}
	return d.ResetTime.Sub(now).Round(time.Second)
}

// Limiter counts requests per (identifier, endpoint) using an atomic increment-and-get on its store.
type Limiter struct {
	store limiter.Store
	now   func() time.Time
}

// New creates a Limiter backed by store.
func New(store limiter.Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Check counts one request and reports whether it fits in the current window.
//
// On a store error Check returns an allowed Decision together with the error: the limiter fails open.
// Callers decide whether to honour that and must log the error.
func (l *Limiter) Check(ctx context.Context, identifier, endpoint string, rule Rule) (Decision, error) {
	lctx, err := l.store.Increment(ctx, Key(identifier, endpoint), 1, rule.rate())
	if err != nil {
		return Decision{
			Allowed:   true,
			Remaining: rule.Limit,
			ResetTime: l.now().Add(rule.Window),
			Total:     rule.Limit,
		}, fmt.Errorf("rate limit store: %w", err)
	}

	return Decision{
		Allowed:   !lctx.Reached,
		Remaining: lctx.Remaining,
		ResetTime: time.Unix(lctx.Reset, 0),
		Total:     lctx.Limit,
	}, nil
}

// Key builds the counter key for an identifier on an endpoint.
func Key(identifier, endpoint string) string {
	return identifier + ":" + endpoint
}
