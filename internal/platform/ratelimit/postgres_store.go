package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/common"
)

// querier is the subset of *pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps fixed-window counters in rate_limit_windows so every replica shares them.
// Each increment is a single upsert, so concurrent requests never lose a count.
type PostgresStore struct {
	db     querier
	prefix string
	now    func() time.Time
}

var (
	_ limiter.Store = (*PostgresStore)(nil)
	_ Cleaner       = (*PostgresStore)(nil)
)

// NewPostgresStore creates a store over db, usually the application's pgx pool.
func NewPostgresStore(db querier, prefix string) *PostgresStore {
	return &PostgresStore{db: db, prefix: prefix, now: time.Now}
}

func (s *PostgresStore) key(key string) string {
	var b strings.Builder
	b.WriteString(s.prefix)
	b.WriteString(":")
	b.WriteString(key)
	return b.String()
}

// An elapsed window restarts at the request's time with the request's count.
const incrementQuery = `
	INSERT INTO rate_limit_windows (key, request_count, window_start, expires_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (key) DO UPDATE SET
		request_count = CASE WHEN rate_limit_windows.expires_at <= $3
			THEN EXCLUDED.request_count ELSE rate_limit_windows.request_count + EXCLUDED.request_count END,
		window_start = CASE WHEN rate_limit_windows.expires_at <= $3
			THEN EXCLUDED.window_start ELSE rate_limit_windows.window_start END,
		expires_at = CASE WHEN rate_limit_windows.expires_at <= $3
			THEN EXCLUDED.expires_at ELSE rate_limit_windows.expires_at END
	RETURNING request_count, expires_at;
`

// Get increments the counter by one.
func (s *PostgresStore) Get(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return s.Increment(ctx, key, 1, rate)
}

// Increment adds count to the current window and returns the resulting state.
func (s *PostgresStore) Increment(ctx context.Context, key string, count int64, rate limiter.Rate) (limiter.Context, error) {
	now := s.now().UTC()
	var total int64
	var expiration time.Time
	err := s.db.QueryRow(ctx, incrementQuery, s.key(key), count, now, now.Add(rate.Period)).Scan(&total, &expiration)
	if err != nil {
		return limiter.Context{}, fmt.Errorf("failed to increment rate limit window: %w", err)
	}
	return common.GetContextFromState(now, rate, expiration, total), nil
}

// Peek returns the current window without counting a request.
func (s *PostgresStore) Peek(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	now := s.now().UTC()
	query := `SELECT request_count, expires_at FROM rate_limit_windows WHERE key = $1 AND expires_at > $2;`
	var total int64
	var expiration time.Time
	err := s.db.QueryRow(ctx, query, s.key(key), now).Scan(&total, &expiration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.GetContextFromState(now, rate, now.Add(rate.Period), 0), nil
		}
		return limiter.Context{}, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	return common.GetContextFromState(now, rate, expiration, total), nil
}

// Reset drops the window for key.
func (s *PostgresStore) Reset(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	now := s.now().UTC()
	if _, err := s.db.Exec(ctx, `DELETE FROM rate_limit_windows WHERE key = $1;`, s.key(key)); err != nil {
		return limiter.Context{}, fmt.Errorf("failed to reset rate limit window: %w", err)
	}
	return common.GetContextFromState(now, rate, now.Add(rate.Period), 0), nil
}

// Cleanup deletes windows that ended at or before now.
func (s *PostgresStore) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM rate_limit_windows WHERE expires_at <= $1;`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge rate limit windows: %w", err)
	}
	return tag.RowsAffected(), nil
}
