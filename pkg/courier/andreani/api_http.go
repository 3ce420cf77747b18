package andreani

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/lakerscorp/courier-sync/pkg/courier"
)

const authTokenHeader = "x-authorization-token"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
// Andreani uses a token handshake: a basic-auth GET /login yields a token
// that is attached to every subsequent request. The token is cached and
// refreshed once on a 401 before the failure is surfaced as an auth error.
type HTTPAPIClient struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:  cfg.BaseURL,
		user:     cfg.User,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetShipment fetches the current state of a shipment.
func (c *HTTPAPIClient) GetShipment(ctx context.Context, trackingID string) (*Shipment, error) {
	body, err := c.doAuthed(ctx, http.MethodGet, "/v2/envios/"+trackingID, nil)
	if err != nil {
		return nil, err
	}

	var shipment Shipment
	if err := json.Unmarshal(body, &shipment); err != nil {
		return nil, courier.NewError(carrierName, courier.KindTransient, "decoding shipment response").WithCause(err)
	}
	return &shipment, nil
}

// GetTraces fetches the event history of a shipment.
func (c *HTTPAPIClient) GetTraces(ctx context.Context, trackingID string) ([]Trace, error) {
	body, err := c.doAuthed(ctx, http.MethodGet, "/v2/envios/"+trackingID+"/trazas", nil)
	if err != nil {
		return nil, err
	}

	var traces []Trace
	if err := json.Unmarshal(body, &traces); err != nil {
		return nil, courier.NewError(carrierName, courier.KindTransient, "decoding traces response").WithCause(err)
	}
	return traces, nil
}

// CreateOrder creates a shipping order.
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, courier.NewError(carrierName, courier.KindInvalid, "encoding order request").WithCause(err)
	}

	body, err := c.doAuthed(ctx, http.MethodPost, "/v2/ordenes-de-envio", payload)
	if err != nil {
		return nil, err
	}

	var wire orderWireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, courier.NewError(carrierName, courier.KindTransient, "decoding order response").WithCause(err)
	}
	if len(wire.Bultos) == 0 || wire.Bultos[0].NumeroDeEnvio == "" {
		return nil, courier.NewError(carrierName, courier.KindInvalid, "order response carries no shipment number")
	}
	return &OrderResponse{
		NumeroDeEnvio:     wire.Bultos[0].NumeroDeEnvio,
		AgrupadorDeBultos: wire.AgrupadorDeBultos,
	}, nil
}

// GetLabels downloads the label PDF for a parcel group.
func (c *HTTPAPIClient) GetLabels(ctx context.Context, groupID string) ([]byte, error) {
	return c.doAuthed(ctx, http.MethodGet, "/v2/ordenes-de-envio/"+groupID+"/etiquetas", nil)
}

// login performs the basic-auth handshake and caches the returned token.
func (c *HTTPAPIClient) login(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/login", nil)
	if err != nil {
		return courier.NewError(carrierName, courier.KindInvalid, "building login request").WithCause(err)
	}
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return courier.NewError(carrierName, courier.KindAuth,
			fmt.Sprintf("login rejected with status %d", resp.StatusCode)).
			WithStatusCode(resp.StatusCode)
	}

	token := resp.Header.Get(authTokenHeader)
	if token == "" {
		return courier.NewError(carrierName, courier.KindAuth, "login response carries no token")
	}
	c.token = token
	return nil
}

func (c *HTTPAPIClient) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return nil
	}
	return c.login(ctx)
}

func (c *HTTPAPIClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *HTTPAPIClient) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// doAuthed performs an authenticated request, re-authenticating once when the
// cached token is rejected.
func (c *HTTPAPIClient) doAuthed(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if err := c.ensureToken(ctx); err != nil {
			return nil, err
		}

		body, err := c.do(ctx, method, path, payload)
		if courier.IsAuth(err) && attempt == 0 {
			c.invalidateToken()
			continue
		}
		return body, err
	}
	return nil, courier.NewError(carrierName, courier.KindAuth, "token rejected after re-authentication")
}

func (c *HTTPAPIClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, courier.NewError(carrierName, courier.KindInvalid, "building request").WithCause(err)
	}
	req.Header.Set(authTokenHeader, c.currentToken())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, courier.NewError(carrierName, courier.KindTransient, "reading response body").WithCause(err)
		}
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, courier.NewError(carrierName, courier.KindAuth, "token rejected").
			WithStatusCode(resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, courier.NewError(carrierName, courier.KindNotFound,
			fmt.Sprintf("%s not found", path)).
			WithStatusCode(resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, courier.NewError(carrierName, courier.KindTransient,
			fmt.Sprintf("server error %d", resp.StatusCode)).
			WithStatusCode(resp.StatusCode)
	default:
		return nil, courier.NewError(carrierName, courier.KindInvalid,
			fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithStatusCode(resp.StatusCode)
	}
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return courier.NewError(carrierName, courier.KindTransient, "request timed out").WithCause(err)
	}
	return courier.NewError(carrierName, courier.KindTransient, "request failed").WithCause(err)
}
