package welivery_test

import (
	"context"
	"testing"
	"time"

	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/lakerscorp/courier-sync/pkg/courier/welivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *welivery.MockAPIClient) *welivery.Client {
	logger := otelzap.New(zap.NewNop())
	return welivery.NewWithAPIClient(welivery.Config{}, mockClient, logger)
}

func TestClient_TrackingStatus_Success(t *testing.T) {
	mockAPI := welivery.NewMockAPIClient()
	mockAPI.OnGetDeliveryStatus = func(ctx context.Context, trackingID string) (*welivery.DeliveryStatus, error) {
		return &welivery.DeliveryStatus{
			Status: "COMPLETADO",
			StatusHistory: []welivery.HistoryEntry{
				{Status: "EN CURSO", DateTime: "2025-09-10 09:15:00"},
				{Status: "COMPLETADO", DateTime: "2025-09-11 17:38:22"},
			},
		}, nil
	}
	client := newTestClient(mockAPI)

	status, err := client.TrackingStatus(context.Background(), "WL-1001")

	require.NoError(t, err)
	assert.Equal(t, "COMPLETADO", status.RawStatus)
	require.Len(t, status.Events, 2)
	assert.Equal(t, time.Date(2025, 9, 11, 17, 38, 22, 0, time.UTC),
		status.LatestEventTime(time.Now()))
}

func TestClient_TrackingStatus_TransientError(t *testing.T) {
	mockAPI := welivery.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, err := client.TrackingStatus(context.Background(), "WL-1001")

	require.Error(t, err)
	assert.True(t, courier.IsTransient(err))
}

func TestClient_TrackingStatus_UnparsableHistoryDates(t *testing.T) {
	mockAPI := welivery.NewMockAPIClient()
	mockAPI.OnGetDeliveryStatus = func(ctx context.Context, trackingID string) (*welivery.DeliveryStatus, error) {
		return &welivery.DeliveryStatus{
			Status: "PENDIENTE",
			StatusHistory: []welivery.HistoryEntry{
				{Status: "PENDIENTE", DateTime: "no date"},
			},
		}, nil
	}
	client := newTestClient(mockAPI)

	status, err := client.TrackingStatus(context.Background(), "WL-1002")

	require.NoError(t, err)
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fallback, status.LatestEventTime(fallback))
}

func TestClient_CreateShipment_UsesStoreOrderID(t *testing.T) {
	client := newTestClient(welivery.NewMockAPIClient())

	resp, err := client.CreateShipment(context.Background(), &courier.CreateShipmentRequest{
		OrderID:      "208101",
		StoreOrderID: " 55873 ",
	})

	require.NoError(t, err)
	assert.Equal(t, "55873", resp.TrackingID)
}

func TestClient_CreateShipment_MissingStoreOrderID(t *testing.T) {
	client := newTestClient(welivery.NewMockAPIClient())

	_, err := client.CreateShipment(context.Background(), &courier.CreateShipmentRequest{
		OrderID: "208101",
	})

	assert.Error(t, err)
}

func TestClient_FetchLabel(t *testing.T) {
	mockAPI := welivery.NewMockAPIClient()
	client := newTestClient(mockAPI)

	resp, err := client.FetchLabel(context.Background(), &courier.FetchLabelRequest{TrackingID: "WL-1001"})

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.ContentType)
	assert.NotEmpty(t, resp.Data)
}

func TestClient_StatusMap_Vocabulary(t *testing.T) {
	client := newTestClient(welivery.NewMockAPIClient())
	m := client.StatusMap()

	text, code := m.Map("completado")
	assert.Equal(t, "COMPLETADO", text)
	assert.Equal(t, 3, code)
	assert.Equal(t, 3, m.DeliveredCode())
	assert.True(t, m.IsTerminal(19))
	assert.False(t, m.IsTerminal(2))

	_, code = m.Map("algo nunca visto")
	assert.Equal(t, courier.CodeUnknown, code)
}
