// Package andreani provides integration with the Andreani shipping API.
package andreani

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const carrierName = "andreani"

// statuses is the fixed Andreani status vocabulary. Code 18 (ENTREGADO)
// triggers the e-commerce delivered propagation; 14/18/20 end polling and
// RESCATADO shipments are excluded from refresh scans.
var statuses = courier.NewStatusMap(map[string]int{
	"PENDIENTE DE INGRESO":   5,
	"INGRESADO":              7,
	"EN DISTRIBUCION":        10,
	"EN CAMINO":              12,
	"DEVUELTO AL REMITENTE":  14,
	"NO ENTREGADO":           16,
	"ENTREGADO":              18,
	"SINIESTRADO":            20,
	"RESCATADO":              21,
	"EN ESPERA EN SUCURSAL":  22,
	"INDEFINIDO":             courier.CodeUnknown,
	"SIN PROCESAR":           courier.CodeUnprocessed,
}, 18, []int{14, 18, 20}, "RESCATADO")

// Config holds Andreani configuration.
type Config struct {
	BaseURL  string
	User     string
	Password string
	Contract string // Andreani contract number attached to every order
	UseMock  bool   // When true, uses a mock API client
}

// Client is the Andreani courier client.
// It implements the courier.Provider interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new Andreani client.
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

// NewWithAPIClient creates a new Andreani client with a custom API client.
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

// CreateShipment creates a shipping order with Andreani.
func (c *Client) CreateShipment(ctx context.Context, req *courier.CreateShipmentRequest) (*courier.CreateShipmentResponse, error) {
	c.logger.Info("Creating Andreani order",
		zap.String("order_id", req.OrderID),
		zap.String("contract", c.config.Contract),
	)

	reference := req.Reference
	if reference == "" {
		reference = uuid.New().String()
	}

	resp, err := c.apiClient.CreateOrder(ctx, &OrderRequest{
		Contrato: c.config.Contract,
		IDPedido: req.OrderID,
		Bultos: []Bulto{
			{Kilos: 2, VolumenCm: 5000, ReferenciaDeCliente: reference},
		},
	})
	if err != nil {
		c.logger.Error("Andreani API error", zap.Error(err))
		return nil, err
	}

	return &courier.CreateShipmentResponse{
		TrackingID: resp.NumeroDeEnvio,
		GroupID:    resp.AgrupadorDeBultos,
	}, nil
}

// TrackingStatus returns the remote status of a shipment, combining the
// shipment state with its trace history.
func (c *Client) TrackingStatus(ctx context.Context, trackingID string) (*courier.RemoteStatus, error) {
	shipment, err := c.apiClient.GetShipment(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	status := &courier.RemoteStatus{RawStatus: shipment.Estado}

	// Traces are best-effort: the state endpoint already carries the
	// current status, so a failed trace fetch only costs the status date.
	traces, err := c.apiClient.GetTraces(ctx, trackingID)
	if err != nil {
		c.logger.Warn("Failed to fetch Andreani traces",
			zap.String("tracking_id", trackingID),
			zap.Error(err),
		)
		return status, nil
	}

	status.Events = tracesToEvents(traces)
	return status, nil
}

// FetchLabel downloads the label PDF for the shipment's parcel group.
func (c *Client) FetchLabel(ctx context.Context, req *courier.FetchLabelRequest) (*courier.FetchLabelResponse, error) {
	groupID := req.GroupID
	if groupID == "" {
		groupID = req.TrackingID
	}

	c.logger.Info("Fetching Andreani labels", zap.String("group_id", groupID))

	data, err := c.apiClient.GetLabels(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &courier.FetchLabelResponse{
		TrackingID:  req.TrackingID,
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// StatusMap returns the Andreani status vocabulary.
func (c *Client) StatusMap() *courier.StatusMap {
	return statuses
}

func tracesToEvents(traces []Trace) []courier.TrackingEvent {
	events := make([]courier.TrackingEvent, 0, len(traces))
	for _, tr := range traces {
		ev := courier.TrackingEvent{
			Description: tr.Evento,
			Location:    tr.Sucursal,
		}
		if t, err := courier.ParseEventTime(tr.Fecha); err == nil {
			ev.Timestamp = t
		}
		events = append(events, ev)
	}
	return events
}
