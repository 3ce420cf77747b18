package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/lib/pq"
)

// Postgres error codes treated as retryable persistence conflicts.
const (
	pqDeadlockDetected    = "40P01"
	pqSerializationFailed = "40001"
)

// RetryPolicy bounds the retry loop for conflicting writes: up to Attempts
// tries with linearly increasing waits (Step, 2*Step, ...).
type RetryPolicy struct {
	Attempts int
	Step     time.Duration
}

// DefaultRetryPolicy matches the reference deployment: three attempts with
// 1s/2s waits between them.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Step: time.Second}

// linearBackOff yields Step, 2*Step, 3*Step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

// IsConflict reports whether err is a database deadlock or serialization
// failure worth retrying.
func IsConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqDeadlockDetected || string(pqErr.Code) == pqSerializationFailed
	}
	return false
}

// retryConflicts runs fn, retrying only on persistence conflicts per the
// policy. Any other error is returned immediately. After the final attempt
// the last conflict error is returned so callers can record a hard failure
// for that row alone.
func retryConflicts(ctx context.Context, policy RetryPolicy, fn func() error) error {
	operation := func() (struct{}, error) {
		if err := fn(); err != nil {
			if IsConflict(err) {
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&linearBackOff{step: policy.Step}),
		backoff.WithMaxTries(uint(policy.Attempts)),
	)
	return err
}
