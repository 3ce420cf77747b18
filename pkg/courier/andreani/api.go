package andreani

import (
	"context"
)

// APIClient defines the interface for Andreani API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetShipment fetches the current state of a shipment.
	// GET /v2/envios/{tracking}
	GetShipment(ctx context.Context, trackingID string) (*Shipment, error)

	// GetTraces fetches the event history of a shipment.
	// GET /v2/envios/{tracking}/trazas
	GetTraces(ctx context.Context, trackingID string) ([]Trace, error)

	// CreateOrder creates a shipping order.
	// POST /v2/ordenes-de-envio
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)

	// GetLabels downloads the label PDF for a parcel group.
	// GET /v2/ordenes-de-envio/{group}/etiquetas
	GetLabels(ctx context.Context, groupID string) ([]byte, error)
}

// ============================================================================
// API Request/Response Types (match Andreani REST API v2 structure)
// ============================================================================

// Shipment represents a shipment state response.
type Shipment struct {
	NumeroDeEnvio string `json:"numeroDeEnvio"`
	Estado        string `json:"estado"`
	EstadoID      int    `json:"estadoId"`
	FechaEstado   string `json:"fechaEstado,omitempty"`
}

// Trace is a single event in the shipment history.
type Trace struct {
	Evento   string `json:"evento"`
	Fecha    string `json:"fecha"`
	Sucursal string `json:"sucursal,omitempty"`
}

// OrderRequest is a shipping-order creation request.
type OrderRequest struct {
	Contrato     string       `json:"contrato"`
	IDPedido     string       `json:"idPedido"`
	Origen       Postal       `json:"origen"`
	Destino      Postal       `json:"destino"`
	Destinatario Destinatario `json:"destinatario"`
	Bultos       []Bulto      `json:"bultos"`
}

// Postal is an origin or destination address.
type Postal struct {
	CodigoPostal string `json:"codigoPostal"`
	Calle        string `json:"calle"`
	Numero       string `json:"numero"`
	Localidad    string `json:"localidad"`
	Region       string `json:"region,omitempty"`
	Pais         string `json:"pais"`
}

// Destinatario is the recipient contact info.
type Destinatario struct {
	NombreCompleto  string `json:"nombreCompleto"`
	Email           string `json:"email,omitempty"`
	DocumentoTipo   string `json:"documentoTipo,omitempty"`
	DocumentoNumero string `json:"documentoNumero,omitempty"`
	Telefono        string `json:"telefono,omitempty"`
}

// Bulto is a single parcel in the order.
type Bulto struct {
	Kilos               float64 `json:"kilos"`
	VolumenCm           float64 `json:"volumenCm"`
	ValorDeclarado      float64 `json:"valorDeclaradoConImpuestos"`
	ReferenciaDeCliente string  `json:"referenciaDeCliente,omitempty"`
}

// orderWireResponse is the raw creation response.
type orderWireResponse struct {
	Bultos []struct {
		NumeroDeEnvio string `json:"numeroDeEnvio"`
	} `json:"bultos"`
	AgrupadorDeBultos string `json:"agrupadorDeBultos"`
}

// OrderResponse is the normalized creation result.
type OrderResponse struct {
	NumeroDeEnvio     string
	AgrupadorDeBultos string
}
