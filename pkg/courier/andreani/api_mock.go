package andreani

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lakerscorp/courier-sync/pkg/courier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetShipment func(ctx context.Context, trackingID string) (*Shipment, error)
	OnGetTraces   func(ctx context.Context, trackingID string) ([]Trace, error)
	OnCreateOrder func(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
	OnGetLabels   func(ctx context.Context, groupID string) ([]byte, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return courier.NewError(carrierName, courier.KindTransient, "simulated API error")
	}
	return nil
}

// GetShipment returns a mock shipment state.
func (m *MockAPIClient) GetShipment(ctx context.Context, trackingID string) (*Shipment, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetShipment != nil {
		return m.OnGetShipment(ctx, trackingID)
	}

	return &Shipment{
		NumeroDeEnvio: trackingID,
		Estado:        "EN DISTRIBUCION",
		EstadoID:      10,
		FechaEstado:   time.Now().Add(-3 * time.Hour).Format("2006-01-02 15:04:05"),
	}, nil
}

// GetTraces returns a mock event history.
func (m *MockAPIClient) GetTraces(ctx context.Context, trackingID string) ([]Trace, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetTraces != nil {
		return m.OnGetTraces(ctx, trackingID)
	}

	now := time.Now()
	return []Trace{
		{Evento: "INGRESADO", Fecha: now.Add(-48 * time.Hour).Format("2006-01-02 15:04:05")},
		{Evento: "EN DISTRIBUCION", Fecha: now.Add(-3 * time.Hour).Format("2006-01-02 15:04:05")},
	}, nil
}

// CreateOrder returns a mock order creation response.
func (m *MockAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, req)
	}

	suffix := uuid.New().String()[:8]
	return &OrderResponse{
		NumeroDeEnvio:     fmt.Sprintf("36000%s", suffix),
		AgrupadorDeBultos: fmt.Sprintf("agr-%s", suffix),
	}, nil
}

// GetLabels returns mock label bytes.
func (m *MockAPIClient) GetLabels(ctx context.Context, groupID string) ([]byte, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetLabels != nil {
		return m.OnGetLabels(ctx, groupID)
	}

	return []byte("%PDF-1.4 mock andreani label " + groupID), nil
}
