package apperr_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexrelay/lexrelay/internal/apperr"
)

func TestRetry_ValidationErrorNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	err := apperr.Retry(context.Background(), func() error {
		calls++
		return apperr.New(apperr.KindValidation, "bad input")
	}, 3, time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRetry_NonRetryableKinds(t *testing.T) {
	t.Parallel()

	for _, kind := range []apperr.Kind{
		apperr.KindAuth, apperr.KindPermission, apperr.KindValidation, apperr.KindNotFound,
	} {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			calls := 0
			err := apperr.Retry(context.Background(), func() error {
				calls++
				return apperr.New(kind, "nope")
			}, 5, time.Millisecond)

			require.Error(t, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRetry_NetworkErrorRetriedWithBackoff(t *testing.T) {
	t.Parallel()

	calls := 0
	var timestamps []time.Time
	err := apperr.Retry(context.Background(), func() error {
		calls++
		timestamps = append(timestamps, time.Now())
		if calls < 3 {
			return apperr.New(apperr.KindNetwork, "connection reset")
		}
		return nil
	}, 3, 40*time.Millisecond)

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Len(t, timestamps, 3)

	first := timestamps[1].Sub(timestamps[0])
	second := timestamps[2].Sub(timestamps[1])

	// Jitter only adds on top of the nominal delay, so neither wait may
	// undershoot it, and the delay doubles per attempt.
	assert.GreaterOrEqual(t, first, 40*time.Millisecond)
	assert.GreaterOrEqual(t, second, 80*time.Millisecond)
}

func TestRetry_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	t.Parallel()

	calls := 0
	err := apperr.Retry(context.Background(), func() error {
		calls++
		return apperr.New(apperr.KindServer, "still down")
	}, 3, time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
}

func TestRetry_NormalizesPlainErrors(t *testing.T) {
	t.Parallel()

	err := apperr.Retry(context.Background(), func() error {
		return &apperr.StatusError{Status: 403, Body: "denied"}
	}, 4, time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))
}

func TestRetry_ContextCancellationStopsRetries(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := apperr.Retry(ctx, func() error {
		calls++
		return apperr.New(apperr.KindNetwork, "down")
	}, 10, 50*time.Millisecond)

	require.Error(t, err)
	assert.Less(t, calls, 10)
}
