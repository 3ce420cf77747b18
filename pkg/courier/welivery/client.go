// Package welivery provides integration with the Welivery shipping API.
package welivery

import (
	"context"
	"strings"
	"time"

	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const carrierName = "welivery"

// statuses is the fixed Welivery status vocabulary. Code 3 (COMPLETADO)
// triggers the e-commerce delivered propagation; 3/4/19/21 end polling.
var statuses = courier.NewStatusMap(map[string]int{
	"PENDIENTE":          0,
	"EN CURSO":           2,
	"NO COMPLETADO":      2,
	"COMPLETADO":         3,
	"CANCELADO":          4,
	"INGRESO A DEPOSITO": 7,
	"REPETIDO":           9,
	"PREPARADO":          10,
	"PRIMER VISITA":      11,
	"SEGUNDA VISITA":     12,
	"DEBE REGRESAR":      13,
	"ASIGNADO":           15,
	"REGRESADO":          19,
	"NO RETIRADO":        20,
	"RETIRADO":           21,
	"SINIESTRO":          23,
	"INDEFINIDO":         courier.CodeUnknown,
	"SIN PROCESAR":       courier.CodeUnprocessed,
}, 3, []int{3, 4, 19, 21}, "")

// Config holds Welivery configuration.
type Config struct {
	BaseURL  string
	User     string
	Password string
	UseMock  bool // When true, uses a mock API client
}

// Client is the Welivery courier client.
// It implements the courier.Provider interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new Welivery client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:  cfg.BaseURL,
			User:     cfg.User,
			Password: cfg.Password,
			Timeout:  30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
	}
}

// NewWithAPIClient creates a new Welivery client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// CreateShipment registers a shipment with Welivery. The store order id
// doubles as the Welivery tracking number, so registration is local: the
// trimmed id is returned as tracking id and labels are grouped under it.
func (c *Client) CreateShipment(ctx context.Context, req *courier.CreateShipmentRequest) (*courier.CreateShipmentResponse, error) {
	tracking := strings.TrimSpace(req.StoreOrderID)
	if tracking == "" {
		return nil, courier.NewError(carrierName, courier.KindInvalid,
			"order has no store order id to use as tracking number")
	}

	c.logger.Info("Creating Welivery shipment",
		zap.String("order_id", req.OrderID),
		zap.String("tracking_id", tracking),
	)

	return &courier.CreateShipmentResponse{
		TrackingID: tracking,
		GroupID:    tracking,
	}, nil
}

// TrackingStatus returns the remote status of a shipment.
func (c *Client) TrackingStatus(ctx context.Context, trackingID string) (*courier.RemoteStatus, error) {
	status, err := c.apiClient.GetDeliveryStatus(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	return &courier.RemoteStatus{
		RawStatus: status.Status,
		Events:    historyToEvents(status.StatusHistory),
	}, nil
}

// FetchLabel downloads the rendered label PDF.
func (c *Client) FetchLabel(ctx context.Context, req *courier.FetchLabelRequest) (*courier.FetchLabelResponse, error) {
	c.logger.Info("Fetching Welivery label", zap.String("tracking_id", req.TrackingID))

	data, err := c.apiClient.GetLabel(ctx, req.TrackingID)
	if err != nil {
		return nil, err
	}

	return &courier.FetchLabelResponse{
		TrackingID:  req.TrackingID,
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// StatusMap returns the Welivery status vocabulary.
func (c *Client) StatusMap() *courier.StatusMap {
	return statuses
}

func historyToEvents(history []HistoryEntry) []courier.TrackingEvent {
	events := make([]courier.TrackingEvent, 0, len(history))
	for _, h := range history {
		ev := courier.TrackingEvent{
			Description: h.Status,
			Location:    h.Location,
		}
		// Unparsable timestamps leave the event zero-dated; the engine
		// falls back to the poll time.
		if t, err := courier.ParseEventTime(h.DateTime); err == nil {
			ev.Timestamp = t
		}
		events = append(events, ev)
	}
	return events
}
