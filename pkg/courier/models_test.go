package courier_test

import (
	"testing"
	"time"

	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventTime(t *testing.T) {
	got, err := courier.ParseEventTime("2025-09-11 17:38:22")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 11, 17, 38, 22, 0, time.UTC), got)

	got, err = courier.ParseEventTime("2025-09-11 17:38:22Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 11, 17, 38, 22, 0, time.UTC), got)

	_, err = courier.ParseEventTime("2025-09-11T17:38:22-03:00")
	require.NoError(t, err)

	_, err = courier.ParseEventTime("not a date")
	assert.Error(t, err)
}

func TestRemoteStatus_LatestEventTime(t *testing.T) {
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	st := &courier.RemoteStatus{
		Events: []courier.TrackingEvent{
			{Description: "created", Timestamp: time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC)},
			{Description: "delivered", Timestamp: time.Date(2025, 9, 11, 17, 38, 22, 0, time.UTC)},
			{Description: "in transit", Timestamp: time.Date(2025, 9, 10, 19, 0, 0, 0, time.UTC)},
		},
	}
	assert.Equal(t, time.Date(2025, 9, 11, 17, 38, 22, 0, time.UTC), st.LatestEventTime(fallback))
}

func TestRemoteStatus_LatestEventTime_EmptyHistory(t *testing.T) {
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	st := &courier.RemoteStatus{}
	assert.Equal(t, fallback, st.LatestEventTime(fallback))

	st = &courier.RemoteStatus{Events: []courier.TrackingEvent{{Description: "no timestamp"}}}
	assert.Equal(t, fallback, st.LatestEventTime(fallback))
}
