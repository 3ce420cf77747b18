package courier_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/stretchr/testify/assert"
)

func TestError_Classification(t *testing.T) {
	authErr := courier.NewError("welivery", courier.KindAuth, "credentials rejected").WithStatusCode(401)
	notFound := courier.NewError("welivery", courier.KindNotFound, "unknown tracking id")
	transient := courier.NewError("andreani", courier.KindTransient, "gateway timeout").WithStatusCode(504)

	assert.True(t, courier.IsAuth(authErr))
	assert.False(t, courier.IsAuth(notFound))

	assert.True(t, courier.IsNotFound(notFound))
	assert.False(t, courier.IsNotFound(transient))

	assert.True(t, courier.IsTransient(transient))
	assert.False(t, courier.IsTransient(authErr))
}

func TestError_ClassificationThroughWrapping(t *testing.T) {
	inner := courier.NewError("andreani", courier.KindTransient, "timeout")
	wrapped := fmt.Errorf("refreshing status: %w", inner)

	assert.True(t, courier.IsTransient(wrapped))
	assert.False(t, courier.IsTransient(errors.New("plain error")))
}

func TestError_Cause(t *testing.T) {
	cause := errors.New("connection reset")
	err := courier.NewError("welivery", courier.KindTransient, "request failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), "welivery")
}
