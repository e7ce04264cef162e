package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(testLogger())

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "login:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := limiter.Check(ctx, "login:1.2.3.4", 3, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(testLogger())

	_, err := limiter.Check(ctx, "login:1.2.3.4", 1, time.Minute)
	require.NoError(t, err)

	result, err := limiter.Check(ctx, "login:5.6.7.8", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiterWindowSlides(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(testLogger())

	_, err := limiter.Check(ctx, "login:1.2.3.4", 1, 10*time.Millisecond)
	require.NoError(t, err)

	_, err = limiter.Check(ctx, "login:1.2.3.4", 1, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrLimitExceeded)

	time.Sleep(15 * time.Millisecond)

	result, err := limiter.Check(ctx, "login:1.2.3.4", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiterCleanup(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(testLogger())

	_, err := limiter.Check(ctx, "login:stale", 5, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	limiter.Cleanup(time.Millisecond)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.windows)
}
