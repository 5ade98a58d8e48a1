package apperr

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// additiveJitter adds up to 10% of the base delay on top of it, so a delay
// of d lands in [d, 1.1d]. The library's own randomization is symmetric
// around d and can undershoot, which is why it is disabled underneath.
type additiveJitter struct {
	backoff.BackOff
}

func (j additiveJitter) NextBackOff() time.Duration {
	d := j.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	return d + time.Duration(rand.Float64()*0.1*float64(d))
}

// Retry invokes op up to maxAttempts times with exponential backoff starting
// at initialDelay. The delay doubles per attempt with up to 10% random
// jitter added on top. Errors whose kind is not retryable (AUTH, PERMISSION,
// VALIDATION, NOT_FOUND) stop the loop immediately; otherwise the last
// normalized error is returned once attempts are exhausted. Retry holds no
// state between calls.
func Retry(ctx context.Context, op func() error, maxAttempts int, initialDelay time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		normalized := Normalize(err)
		if !normalized.Kind.Retryable() {
			return backoff.Permanent(error(normalized))
		}
		return normalized
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(additiveJitter{b}, uint64(maxAttempts-1)), ctx)
	return backoff.Retry(wrapped, policy)
}
