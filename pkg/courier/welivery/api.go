package welivery

import (
	"context"
)

// APIClient defines the interface for Welivery API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetDeliveryStatus fetches the current status of a shipment by its
	// tracking number.
	GetDeliveryStatus(ctx context.Context, trackingID string) (*DeliveryStatus, error)

	// GetLabel downloads the rendered shipping label (PDF) for a shipment.
	GetLabel(ctx context.Context, trackingID string) ([]byte, error)
}

// ============================================================================
// API Request/Response Types (match the Welivery tracking API structure)
// ============================================================================

// envelope is the outer response wrapper of every Welivery endpoint.
type envelope struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   *DeliveryStatus `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// DeliveryStatus is the status payload for a single shipment.
type DeliveryStatus struct {
	Status        string         `json:"Status"`
	StatusHistory []HistoryEntry `json:"status_history,omitempty"`
}

// HistoryEntry is a single event in the shipment's status history.
// Timestamps come as "YYYY-MM-DD HH:MM:SS", occasionally with a trailing Z.
type HistoryEntry struct {
	Status   string `json:"status"`
	DateTime string `json:"date_time"`
	Location string `json:"location,omitempty"`
}
