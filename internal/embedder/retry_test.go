package embedder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := withRetry(context.Background(), fastRetry(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("%w: flaky", ErrProviderUnavailable)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), fastRetry(), func() (string, error) {
		calls++
		return "", fmt.Errorf("%w: down", ErrRateLimited)
	})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3, calls)
}

func TestWithRetryDoesNotRetryInvalidInput(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), fastRetry(), func() (string, error) {
		calls++
		return "", fmt.Errorf("%w: empty text", ErrInvalidInput)
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := withRetry(ctx, fastRetry(), func() (string, error) {
		calls++
		cancel()
		return "", fmt.Errorf("%w: down", ErrProviderUnavailable)
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestValidateBatch(t *testing.T) {
	assert.ErrorIs(t, validateBatch(nil), ErrInvalidInput)
	assert.ErrorIs(t, validateBatch([]string{"ok", ""}), ErrInvalidInput)
	assert.NoError(t, validateBatch([]string{"a", "b"}))
}
