package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deadlockErr() error {
	return &pq.Error{Code: pq.ErrorCode(pqDeadlockDetected), Message: "deadlock detected"}
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Step: time.Millisecond}
}

func TestRetryConflicts_SucceedsAfterTwoDeadlocks(t *testing.T) {
	calls := 0
	err := retryConflicts(context.Background(), fastPolicy(), func() error {
		calls++
		if calls < 3 {
			return deadlockErr()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryConflicts_GivesUpAfterBoundedAttempts(t *testing.T) {
	calls := 0
	err := retryConflicts(context.Background(), fastPolicy(), func() error {
		calls++
		return deadlockErr()
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsConflict(err))
}

func TestRetryConflicts_NonConflictErrorIsNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("constraint violation")
	err := retryConflicts(context.Background(), fastPolicy(), func() error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(deadlockErr()))
	assert.True(t, IsConflict(&pq.Error{Code: pq.ErrorCode(pqSerializationFailed)}))
	assert.False(t, IsConflict(&pq.Error{Code: "23505"}))
	assert.False(t, IsConflict(errors.New("not a pq error")))
	assert.False(t, IsConflict(nil))
}

func TestInClause(t *testing.T) {
	clause, args := InClause(2, []int{3, 4, 19})
	assert.Equal(t, "($2, $3, $4)", clause)
	assert.Equal(t, []any{3, 4, 19}, args)

	clause, args = InClause(1, []string{"80"})
	assert.Equal(t, "($1)", clause)
	assert.Equal(t, []any{"80"}, args)

	clause, args = InClause(1, []string{})
	assert.Equal(t, "(NULL)", clause)
	assert.Empty(t, args)
}
