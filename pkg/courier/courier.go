// Package courier provides an abstraction layer for last-mile courier APIs.
package courier

import (
	"context"
)

// Provider defines the interface that all courier integrations must implement.
type Provider interface {
	// Name returns the courier identifier (e.g., "welivery", "andreani").
	Name() string

	// CreateShipment registers a new shipment with the courier and returns
	// the tracking identifier assigned to it.
	CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*CreateShipmentResponse, error)

	// TrackingStatus returns the remote status of a shipment.
	// Returns an error of KindNotFound when the courier does not know the
	// tracking id yet, KindAuth on credential failure and KindTransient on
	// timeouts and server errors.
	TrackingStatus(ctx context.Context, trackingID string) (*RemoteStatus, error)

	// FetchLabel retrieves the rendered label asset for a confirmed shipment.
	FetchLabel(ctx context.Context, req *FetchLabelRequest) (*FetchLabelResponse, error)

	// StatusMap returns the courier's status vocabulary, including its
	// delivered code and terminal code set.
	StatusMap() *StatusMap
}
