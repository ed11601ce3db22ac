package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_PermanentErrorStopsAfterOneAttempt(t *testing.T) {
	var attempts int
	_, err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Classify:    func(error) Class { return Permanent },
	}, func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("invalid api key")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a permanent error must never be retried")
}

func TestDo_TransientErrorRetriesUntilSuccess(t *testing.T) {
	var attempts int
	result, err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Classify:    func(error) Class { return Transient },
	}, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestDo_TransientErrorExhaustsBudget(t *testing.T) {
	var attempts int
	_, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Classify:    func(error) Class { return Transient },
	}, func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("service unavailable")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_UnknownErrorGetsLimitedBudget(t *testing.T) {
	var attempts int
	_, err := Do(context.Background(), Policy{
		MaxAttempts: 10,
		BaseDelay:   time.Millisecond,
		Classify:    func(error) Class { return Unknown },
	}, func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("mystery")
	})

	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 2, "unknown errors should not consume the full attempt budget")
}

func TestDo_PermanentErrorHelperOverridesClassifier(t *testing.T) {
	var attempts int
	_, err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Classify:    func(error) Class { return Transient },
	}, func(ctx context.Context) (int, error) {
		attempts++
		return 0, PermanentError(errors.New("bad args"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, "bad args", err.Error())
}

func TestDo_ContextCancelledStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts int
	_, err := Do(ctx, Policy{
		MaxAttempts: 10,
		BaseDelay:   10 * time.Millisecond,
		Classify:    func(error) Class { return Transient },
	}, func(ctx context.Context) (int, error) {
		attempts++
		if attempts == 1 {
			cancel()
		}
		return 0, errors.New("transient")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_SucceedsOnFirstAttempt(t *testing.T) {
	var attempts int
	result, err := Do(context.Background(), Policy{}, func(ctx context.Context) (int, error) {
		attempts++
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, attempts)
}
