package andreani_test

import (
	"context"
	"testing"

	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/lakerscorp/courier-sync/pkg/courier/andreani"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *andreani.MockAPIClient) *andreani.Client {
	logger := otelzap.New(zap.NewNop())
	return andreani.NewWithAPIClient(
		andreani.Config{Contract: "400007367"},
		mockClient,
		logger,
	)
}

func TestClient_CreateShipment_Success(t *testing.T) {
	mockAPI := andreani.NewMockAPIClient()
	var captured *andreani.OrderRequest
	mockAPI.OnCreateOrder = func(ctx context.Context, req *andreani.OrderRequest) (*andreani.OrderResponse, error) {
		captured = req
		return &andreani.OrderResponse{NumeroDeEnvio: "360001234567", AgrupadorDeBultos: "agr-99"}, nil
	}
	client := newTestClient(mockAPI)

	resp, err := client.CreateShipment(context.Background(), &courier.CreateShipmentRequest{
		OrderID: "208101",
	})

	require.NoError(t, err)
	assert.Equal(t, "360001234567", resp.TrackingID)
	assert.Equal(t, "agr-99", resp.GroupID)
	require.NotNil(t, captured)
	assert.Equal(t, "400007367", captured.Contrato)
	assert.Equal(t, "208101", captured.IDPedido)
}

func TestClient_TrackingStatus_CombinesTraces(t *testing.T) {
	mockAPI := andreani.NewMockAPIClient()
	mockAPI.OnGetShipment = func(ctx context.Context, trackingID string) (*andreani.Shipment, error) {
		return &andreani.Shipment{NumeroDeEnvio: trackingID, Estado: "ENTREGADO", EstadoID: 18}, nil
	}
	mockAPI.OnGetTraces = func(ctx context.Context, trackingID string) ([]andreani.Trace, error) {
		return []andreani.Trace{
			{Evento: "INGRESADO", Fecha: "2025-09-09 10:00:00"},
			{Evento: "ENTREGADO", Fecha: "2025-09-11 14:30:00"},
		}, nil
	}
	client := newTestClient(mockAPI)

	status, err := client.TrackingStatus(context.Background(), "360001234567")

	require.NoError(t, err)
	assert.Equal(t, "ENTREGADO", status.RawStatus)
	assert.Len(t, status.Events, 2)
}

func TestClient_TrackingStatus_TraceFailureIsBestEffort(t *testing.T) {
	mockAPI := andreani.NewMockAPIClient()
	mockAPI.OnGetShipment = func(ctx context.Context, trackingID string) (*andreani.Shipment, error) {
		return &andreani.Shipment{NumeroDeEnvio: trackingID, Estado: "EN CAMINO", EstadoID: 12}, nil
	}
	mockAPI.OnGetTraces = func(ctx context.Context, trackingID string) ([]andreani.Trace, error) {
		return nil, courier.NewError("andreani", courier.KindTransient, "trace endpoint down")
	}
	client := newTestClient(mockAPI)

	status, err := client.TrackingStatus(context.Background(), "360001234567")

	require.NoError(t, err)
	assert.Equal(t, "EN CAMINO", status.RawStatus)
	assert.Empty(t, status.Events)
}

func TestClient_TrackingStatus_NotFound(t *testing.T) {
	mockAPI := andreani.NewMockAPIClient()
	mockAPI.OnGetShipment = func(ctx context.Context, trackingID string) (*andreani.Shipment, error) {
		return nil, courier.NewError("andreani", courier.KindNotFound, "unknown shipment")
	}
	client := newTestClient(mockAPI)

	_, err := client.TrackingStatus(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, courier.IsNotFound(err))
}

func TestClient_StatusMap_Vocabulary(t *testing.T) {
	client := newTestClient(andreani.NewMockAPIClient())
	m := client.StatusMap()

	text, code := m.Map("entregado")
	assert.Equal(t, "ENTREGADO", text)
	assert.Equal(t, 18, code)
	assert.Equal(t, 18, m.DeliveredCode())
	assert.True(t, m.IsTerminal(14))
	assert.True(t, m.IsTerminal(20))
	assert.False(t, m.IsTerminal(10))
	assert.Equal(t, "RESCATADO", m.WithdrawnState())
}
