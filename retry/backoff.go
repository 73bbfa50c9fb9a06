// Package retry implements the exponential backoff policy spec §7
// prescribes for the recoverable error kinds (NetworkError, Timeout,
// KmsUnavailable, LogBusy): three attempts by default, base delay
// doubling each attempt, ±20% jitter.
package retry

import (
	"context"
	"math/rand"
	"time"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// Policy configures a backoff sequence.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction, e.g. 0.2 for ±20%
}

// DefaultPolicy is the spec §7 default: 3 attempts, ±20% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.2,
	}
}

// Delay returns the backoff delay before attempt (0-indexed), with
// jitter applied deterministically via the supplied rand source so
// callers can make tests reproducible.
func (p Policy) Delay(attempt int, r *rand.Rand) time.Duration {
	d := p.BaseDelay << attempt
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	if p.Jitter <= 0 {
		return d
	}
	spread := float64(d) * p.Jitter
	delta := (r.Float64()*2 - 1) * spread
	result := time.Duration(float64(d) + delta)
	if result < 0 {
		result = 0
	}
	return result
}

// Do runs fn up to p.MaxAttempts times, retrying only while the returned
// error is Retryable per the errors package, sleeping Policy.Delay
// between attempts. It gives up immediately on a non-retryable error or
// on context cancellation.
func Do(ctx context.Context, p Policy, r *rand.Rand, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return trusterrors.CancelledError("cancelled before attempt %d: %v", attempt, err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		kind, ok := trusterrors.KindOf(err)
		if !ok || !trusterrors.Retryable(kind) {
			return err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		select {
		case <-time.After(p.Delay(attempt, r)):
		case <-ctx.Done():
			return trusterrors.CancelledError("cancelled during backoff: %v", ctx.Err())
		}
	}
	return lastErr
}
