package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_TryAcquireRespectsBurst(t *testing.T) {
	l := New(Config{RatePerSecond: 1, Burst: 2})

	assert.True(t, l.TryAcquire())
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire(), "burst of 2 should be exhausted after 2 immediate acquires")
}

func TestLimiter_AcquireBlocksUntilTokenAvailable(t *testing.T) {
	l := New(Config{RatePerSecond: 50, Burst: 1})
	require.True(t, l.TryAcquire())

	elapsed, err := waitForTokens(context.Background(), l)
	require.NoError(t, err)
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestLimiter_AcquireRespectsContextCancellation(t *testing.T) {
	l := New(Config{RatePerSecond: 0.01, Burst: 1})
	require.True(t, l.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistry_UsesPerTargetConfig(t *testing.T) {
	r := NewRegistry(map[string]Config{
		"anthropic": {RatePerSecond: 5, Burst: 1},
	}, Config{RatePerSecond: 1, Burst: 1})

	anthropic := r.Get("anthropic")
	assert.True(t, anthropic.TryAcquire())
	assert.False(t, anthropic.TryAcquire())
}

func TestRegistry_FallsBackForUnknownTarget(t *testing.T) {
	r := NewRegistry(nil, Config{RatePerSecond: 1, Burst: 3})

	openai := r.Get("openai")
	assert.True(t, openai.TryAcquire())
	assert.True(t, openai.TryAcquire())
	assert.True(t, openai.TryAcquire())
	assert.False(t, openai.TryAcquire())
}

func TestRegistry_GetIsStableAcrossCalls(t *testing.T) {
	r := NewRegistry(nil, Config{RatePerSecond: 1, Burst: 1})
	a := r.Get("x")
	b := r.Get("x")
	assert.Same(t, a, b)
}
