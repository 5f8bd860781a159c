package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/exchange_engine/internal/platform/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	args := m.Called(ctx, key, rate)
	return args.Get(0).(limiter.Context), args.Error(1)
}

func (m *MockStore) Peek(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	args := m.Called(ctx, key, rate)
	return args.Get(0).(limiter.Context), args.Error(1)
}

func (m *MockStore) Reset(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	args := m.Called(ctx, key, rate)
	return args.Get(0).(limiter.Context), args.Error(1)
}

func (m *MockStore) Increment(ctx context.Context, key string, count int64, rate limiter.Rate) (limiter.Context, error) {
	args := m.Called(ctx, key, count, rate)
	return args.Get(0).(limiter.Context), args.Error(1)
}

func TestParseRule(t *testing.T) {
	rule, err := ratelimit.ParseRule("10-M")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rule.Limit)
	assert.Equal(t, time.Minute, rule.Window)

	_, err = ratelimit.ParseRule("ten-per-minute")
	assert.Error(t, err)

	_, err = ratelimit.ParseRule("0-M")
	assert.Error(t, err)
}

func TestCheck_DeniesRequestAfterLimit(t *testing.T) {
	ctx := context.Background()
	l := ratelimit.New(ratelimit.NewMemoryStore("test"))
	rule := ratelimit.Rule{Limit: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		d, err := l.Check(ctx, "user-1", "convert", rule)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, int64(3-i-1), d.Remaining)
		assert.Equal(t, int64(3), d.Total)
	}

	d, err := l.Check(ctx, "user-1", "convert", rule)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.True(t, d.ResetTime.After(time.Now().Add(-time.Second)))
	assert.LessOrEqual(t, d.RetryAfter(time.Now()), time.Minute)
}

func TestCheck_KeysAreScopedByIdentifierAndEndpoint(t *testing.T) {
	ctx := context.Background()
	l := ratelimit.New(ratelimit.NewMemoryStore("test"))
	rule := ratelimit.Rule{Limit: 1, Window: time.Minute}

	d, _ := l.Check(ctx, "user-1", "convert", rule)
	assert.True(t, d.Allowed)
	d, _ = l.Check(ctx, "user-1", "convert", rule)
	assert.False(t, d.Allowed)

	d, _ = l.Check(ctx, "user-1", "orders", rule)
	assert.True(t, d.Allowed, "other endpoint has its own window")
	d, _ = l.Check(ctx, "user-2", "convert", rule)
	assert.True(t, d.Allowed, "other identifier has its own window")
}

func TestCheck_FailsOpenOnStoreError(t *testing.T) {
	store := new(MockStore)
	rule := ratelimit.Rule{Limit: 5, Window: time.Minute}
	store.On("Increment", mock.Anything, "user-1:convert", int64(1), mock.Anything).
		Return(limiter.Context{}, errors.New("connection reset")).Once()

	d, err := ratelimit.New(store).Check(context.Background(), "user-1", "convert", rule)

	require.Error(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(5), d.Remaining)
	store.AssertExpectations(t)
}
