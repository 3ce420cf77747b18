package sales

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// HTTPReportingClient is the production ReportingClient. The backend issues
// a short-lived bearer token per login; the client logs in lazily on the
// first push of a run and retries the login once when the token is rejected.
type HTTPReportingClient struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client

	token string
}

// HTTPReportingClientConfig holds configuration for the HTTP client.
type HTTPReportingClientConfig struct {
	BaseURL  string
	User     string
	Password string
	Timeout  time.Duration
}

// NewHTTPReportingClient creates a reporting client for production use.
func NewHTTPReportingClient(cfg HTTPReportingClientConfig) *HTTPReportingClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPReportingClient{
		baseURL:  cfg.BaseURL,
		user:     cfg.User,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Push submits a batch of invoices.
func (c *HTTPReportingClient) Push(ctx context.Context, invoices []Invoice) (*PushResult, error) {
	payload, err := json.Marshal(struct {
		Invoices []Invoice `json:"invoices"`
	}{Invoices: invoices})
	if err != nil {
		return nil, fmt.Errorf("encoding invoice batch: %w", err)
	}

	body, err := c.doAuthed(ctx, payload)
	if err != nil {
		return nil, err
	}

	var result PushResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding push response: %w", err)
	}
	return &result, nil
}

func (c *HTTPReportingClient) login(ctx context.Context) error {
	payload, err := json.Marshal(struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}{User: c.user, Password: c.password})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reporting backend login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reporting backend login rejected with status %d", resp.StatusCode)
	}

	var wire struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	if wire.Token == "" {
		return fmt.Errorf("login response carries no token")
	}
	c.token = wire.Token
	return nil
}

func (c *HTTPReportingClient) doAuthed(ctx context.Context, payload []byte) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if c.token == "" {
			if err := c.login(ctx); err != nil {
				return nil, err
			}
		}

		body, status, err := c.do(ctx, payload)
		if status == http.StatusUnauthorized && attempt == 0 {
			c.token = ""
			continue
		}
		return body, err
	}
	return nil, fmt.Errorf("token rejected after re-authentication")
}

func (c *HTTPReportingClient) do(ctx context.Context, payload []byte) (body []byte, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/invoices", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("pushing invoice batch: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("reading push response: %w", err)
		}
		return body, resp.StatusCode, nil
	case http.StatusUnauthorized:
		return nil, resp.StatusCode, fmt.Errorf("reporting backend rejected the token")
	default:
		return nil, resp.StatusCode, fmt.Errorf("reporting backend returned status %d", resp.StatusCode)
	}
}
