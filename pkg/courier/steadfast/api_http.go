package steadfast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	apiKey     string
	secretKey  string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateOrder books a consignment.
// POST /create_order
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*Consignment, error) {
	body, err := c.call(ctx, http.MethodPost, "/create_order", req)
	if err != nil {
		return nil, err
	}

	var env response
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	if env.Consignment == nil {
		return nil, fmt.Errorf("order response has no consignment")
	}
	return env.Consignment, nil
}

// CreateBulkOrders books a batch of consignments. The orders travel as a
// JSON-encoded string in the "data" field.
// POST /create_order/bulk-order
func (c *HTTPAPIClient) CreateBulkOrders(ctx context.Context, orders []OrderRequest) ([]BulkResult, error) {
	data, err := json.Marshal(orders)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bulk orders: %w", err)
	}

	body, err := c.call(ctx, http.MethodPost, "/create_order/bulk-order", map[string]string{"data": string(data)})
	if err != nil {
		return nil, err
	}

	var results []BulkResult
	if err := decodeData(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode bulk response: %w", err)
	}
	return results, nil
}

// Status returns the delivery status of a consignment.
// GET /status_by_cid/{id}, /status_by_invoice/{invoice}, /status_by_trackingcode/{code}
func (c *HTTPAPIClient) Status(ctx context.Context, kind LookupKind, id string) (string, error) {
	body, err := c.call(ctx, http.MethodGet, "/status_by_"+string(kind)+"/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}

	var env response
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("failed to decode status response: %w", err)
	}
	return env.DeliveryStatus, nil
}

// Balance returns the current balance.
// GET /get_balance
func (c *HTTPAPIClient) Balance(ctx context.Context) (float64, error) {
	body, err := c.call(ctx, http.MethodGet, "/get_balance", nil)
	if err != nil {
		return 0, err
	}

	var env response
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, fmt.Errorf("failed to decode balance response: %w", err)
	}
	return env.CurrentBalance, nil
}

// Payments lists payouts.
// GET /payments
func (c *HTTPAPIClient) Payments(ctx context.Context) ([]Payment, error) {
	var out []Payment
	if err := c.getData(ctx, "/payments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Payment returns a payout with its consignments.
// GET /payments/{id}
func (c *HTTPAPIClient) Payment(ctx context.Context, id int) (*Payment, error) {
	var out Payment
	if err := c.getData(ctx, "/payments/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReturnRequest opens a return.
// POST /create_return_request
func (c *HTTPAPIClient) CreateReturnRequest(ctx context.Context, req *ReturnRequestInput) (*ReturnRequest, error) {
	body, err := c.call(ctx, http.MethodPost, "/create_return_request", req)
	if err != nil {
		return nil, err
	}

	var out ReturnRequest
	if err := decodeData(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode return request: %w", err)
	}
	return &out, nil
}

// ReturnRequests lists return requests.
// GET /get_return_requests
func (c *HTTPAPIClient) ReturnRequests(ctx context.Context) ([]ReturnRequest, error) {
	var out []ReturnRequest
	if err := c.getData(ctx, "/get_return_requests", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReturnRequest returns one return request.
// GET /get_return_request/{id}
func (c *HTTPAPIClient) ReturnRequest(ctx context.Context, id int) (*ReturnRequest, error) {
	var out ReturnRequest
	if err := c.getData(ctx, "/get_return_request/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PoliceStations lists police stations.
// GET /police_stations
func (c *HTTPAPIClient) PoliceStations(ctx context.Context) ([]PoliceStation, error) {
	var out []PoliceStation
	if err := c.getData(ctx, "/police_stations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (c *HTTPAPIClient) getData(ctx context.Context, path string, out any) error {
	body, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := decodeData(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// decodeData decodes the "data" field of an envelope, or the whole body
// when it is a bare array or object without one.
func decodeData(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return err
		}
		if len(env.Data) > 0 {
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

// call performs a request and returns the body of a successful response.
// Envelopes reporting a non-200 status are errors even under HTTP 200.
func (c *HTTPAPIClient) call(ctx context.Context, method, path string, body any) ([]byte, error) {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp.StatusCode, raw)
	}

	var env response
	if json.Unmarshal(raw, &env) == nil && env.Status != 0 && env.Status != http.StatusOK {
		return nil, parseError(env.Status, raw)
	}
	return raw, nil
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Secret-Key", c.secretKey)
	req.Header.Set("User-Agent", "courier-bridge/1.0")

	return c.httpClient.Do(req)
}

// parseError builds an APIError from a failed response body.
func parseError(status int, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && (apiErr.Message != "" || len(apiErr.Errors) > 0) {
		apiErr.StatusCode = status
		return &apiErr
	}

	return &APIError{
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
