package welivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/lakerscorp/courier-sync/pkg/courier"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
// Welivery authenticates every request with basic auth.
type HTTPAPIClient struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
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

// GetDeliveryStatus fetches the status of a shipment.
// GET {base}?Id={trackingID}
func (c *HTTPAPIClient) GetDeliveryStatus(ctx context.Context, trackingID string) (*DeliveryStatus, error) {
	body, err := c.get(ctx, "", url.Values{"Id": {trackingID}}, trackingID)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, courier.NewError(carrierName, courier.KindTransient, "decoding status response").WithCause(err)
	}
	if env.Status != "OK" || env.Data == nil {
		return nil, courier.NewError(carrierName, courier.KindNotFound,
			fmt.Sprintf("no status for tracking id %s: %s", trackingID, env.Error))
	}
	return env.Data, nil
}

// GetLabel downloads the label PDF for a shipment.
// GET {base}/label?Id={trackingID}
func (c *HTTPAPIClient) GetLabel(ctx context.Context, trackingID string) ([]byte, error) {
	return c.get(ctx, "/label", url.Values{"Id": {trackingID}}, trackingID)
}

func (c *HTTPAPIClient) get(ctx context.Context, path string, params url.Values, trackingID string) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, courier.NewError(carrierName, courier.KindInvalid, "building request").WithCause(err)
	}
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient: the item is left
		// pending and re-polled on the next pass.
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, courier.NewError(carrierName, courier.KindTransient, "request timed out").WithCause(err)
		}
		return nil, courier.NewError(carrierName, courier.KindTransient, "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, courier.NewError(carrierName, courier.KindTransient, "reading response body").WithCause(err)
		}
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, courier.NewError(carrierName, courier.KindAuth, "credentials rejected").
			WithStatusCode(resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, courier.NewError(carrierName, courier.KindNotFound,
			fmt.Sprintf("tracking id %s not found", trackingID)).
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
