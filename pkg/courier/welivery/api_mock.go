package welivery

import (
	"context"
	"time"

	"github.com/lakerscorp/courier-sync/pkg/courier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetDeliveryStatus func(ctx context.Context, trackingID string) (*DeliveryStatus, error)
	OnGetLabel          func(ctx context.Context, trackingID string) ([]byte, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetDeliveryStatus returns a mock delivery status.
func (m *MockAPIClient) GetDeliveryStatus(ctx context.Context, trackingID string) (*DeliveryStatus, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, courier.NewError(carrierName, courier.KindTransient, "simulated API error")
	}

	if m.OnGetDeliveryStatus != nil {
		return m.OnGetDeliveryStatus(ctx, trackingID)
	}

	now := time.Now()
	return &DeliveryStatus{
		Status: "EN CURSO",
		StatusHistory: []HistoryEntry{
			{Status: "PENDIENTE", DateTime: now.Add(-48 * time.Hour).Format("2006-01-02 15:04:05")},
			{Status: "ASIGNADO", DateTime: now.Add(-24 * time.Hour).Format("2006-01-02 15:04:05")},
			{Status: "EN CURSO", DateTime: now.Add(-2 * time.Hour).Format("2006-01-02 15:04:05")},
		},
	}, nil
}

// GetLabel returns mock label bytes.
func (m *MockAPIClient) GetLabel(ctx context.Context, trackingID string) ([]byte, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, courier.NewError(carrierName, courier.KindTransient, "simulated API error")
	}

	if m.OnGetLabel != nil {
		return m.OnGetLabel(ctx, trackingID)
	}

	return []byte("%PDF-1.4 mock welivery label " + trackingID), nil
}
