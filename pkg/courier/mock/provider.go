// Package mock provides a scriptable courier provider for testing.
package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lakerscorp/courier-sync/pkg/courier"
)

// Provider is a mock courier for testing. Behavior can be scripted per call
// through the On* hooks; without hooks it returns plausible canned data.
type Provider struct {
	name     string
	statuses *courier.StatusMap

	OnCreateShipment func(ctx context.Context, req *courier.CreateShipmentRequest) (*courier.CreateShipmentResponse, error)
	OnTrackingStatus func(ctx context.Context, trackingID string) (*courier.RemoteStatus, error)
	OnFetchLabel     func(ctx context.Context, req *courier.FetchLabelRequest) (*courier.FetchLabelResponse, error)
}

// New creates a mock provider with a small default vocabulary.
func New(name string) *Provider {
	return &Provider{
		name: name,
		statuses: courier.NewStatusMap(map[string]int{
			"PENDIENTE":  0,
			"EN CURSO":   2,
			"COMPLETADO": 3,
			"CANCELADO":  4,
		}, 3, []int{3, 4}, ""),
	}
}

// NewWithStatusMap creates a mock provider with a custom vocabulary.
func NewWithStatusMap(name string, statuses *courier.StatusMap) *Provider {
	return &Provider{name: name, statuses: statuses}
}

// Name returns the courier name.
func (p *Provider) Name() string {
	return p.name
}

// CreateShipment registers a mock shipment.
func (p *Provider) CreateShipment(ctx context.Context, req *courier.CreateShipmentRequest) (*courier.CreateShipmentResponse, error) {
	if p.OnCreateShipment != nil {
		return p.OnCreateShipment(ctx, req)
	}
	tracking := strings.TrimSpace(req.StoreOrderID)
	if tracking == "" {
		tracking = fmt.Sprintf("%s-%d", p.name, time.Now().UnixNano())
	}
	return &courier.CreateShipmentResponse{
		TrackingID: tracking,
		GroupID:    "grp-" + tracking,
	}, nil
}

// TrackingStatus returns a mock remote status.
func (p *Provider) TrackingStatus(ctx context.Context, trackingID string) (*courier.RemoteStatus, error) {
	if p.OnTrackingStatus != nil {
		return p.OnTrackingStatus(ctx, trackingID)
	}
	return &courier.RemoteStatus{
		RawStatus: "EN CURSO",
		Events: []courier.TrackingEvent{
			{Description: "EN CURSO", Timestamp: time.Now().Add(-time.Hour)},
		},
	}, nil
}

// FetchLabel returns a mock label asset.
func (p *Provider) FetchLabel(ctx context.Context, req *courier.FetchLabelRequest) (*courier.FetchLabelResponse, error) {
	if p.OnFetchLabel != nil {
		return p.OnFetchLabel(ctx, req)
	}
	return &courier.FetchLabelResponse{
		TrackingID:  req.TrackingID,
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 mock label"),
	}, nil
}

// StatusMap returns the mock vocabulary.
func (p *Provider) StatusMap() *courier.StatusMap {
	return p.statuses
}
