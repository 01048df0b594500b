package pathao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const apiPrefix = "/aladdin/api/v1"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	username     string
	password     string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Timeout      time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		username:     cfg.Username,
		password:     cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// Stores lists the merchant's stores.
// GET /stores
func (c *HTTPAPIClient) Stores(ctx context.Context) ([]Store, error) {
	var list listData[Store]
	if err := c.getData(ctx, "/stores", &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// Cities lists delivery cities.
// GET /city-list
func (c *HTTPAPIClient) Cities(ctx context.Context) ([]City, error) {
	var list listData[City]
	if err := c.getData(ctx, "/city-list", &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// Zones lists the zones of a city.
// GET /cities/{city_id}/zone-list
func (c *HTTPAPIClient) Zones(ctx context.Context, cityID int) ([]Zone, error) {
	var list listData[Zone]
	if err := c.getData(ctx, fmt.Sprintf("/cities/%d/zone-list", cityID), &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// Areas lists the areas of a zone.
// GET /zones/{zone_id}/area-list
func (c *HTTPAPIClient) Areas(ctx context.Context, zoneID int) ([]Area, error) {
	var list listData[Area]
	if err := c.getData(ctx, fmt.Sprintf("/zones/%d/area-list", zoneID), &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// CreateOrder books a consignment and returns the raw response body.
// POST /orders
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, req *CreateOrderRequest) (json.RawMessage, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order response: %w", err)
	}
	return body, nil
}

// CreateBulkOrders submits a batch of orders.
// POST /orders/bulk - returns 202 Accepted, consignments are created asynchronously.
func (c *HTTPAPIClient) CreateBulkOrders(ctx context.Context, orders []CreateOrderRequest) (*BulkResponse, error) {
	body := struct {
		Orders []CreateOrderRequest `json:"orders"`
	}{Orders: orders}

	resp, err := c.doRequest(ctx, http.MethodPost, "/orders/bulk", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, c.parseError(resp)
	}

	var result BulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode bulk response: %w", err)
	}
	return &result, nil
}

// PricePlan calculates the delivery charge.
// POST /merchant/price-plan
func (c *HTTPAPIClient) PricePlan(ctx context.Context, req *PricePlanRequest) (*PricePlan, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/merchant/price-plan", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var plan PricePlan
	if err := decodeData(resp.Body, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode price plan: %w", err)
	}
	return &plan, nil
}

// OrderInfo returns the short status of a consignment.
// GET /orders/{consignment_id}/info
func (c *HTTPAPIClient) OrderInfo(ctx context.Context, consignmentID string) (*OrderInfo, error) {
	var info OrderInfo
	if err := c.getData(ctx, fmt.Sprintf("/orders/%s/info", consignmentID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (c *HTTPAPIClient) getData(ctx context.Context, path string, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	if err := decodeData(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// decodeData unwraps the {"data": ...} envelope into out.
func decodeData(r io.Reader, out any) error {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return err
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("empty data in response")
	}
	return json.Unmarshal(env.Data, out)
}

// token returns a cached access token, issuing a new one when it is missing
// or within a minute of expiry.
func (c *HTTPAPIClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	body, err := json.Marshal(tokenRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		GrantType:    "password",
		Username:     c.username,
		Password:     c.password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+"/issue-token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readAPIError(resp)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "courier-bridge/1.0")

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response. A rejected
// token is dropped so the next call issues a fresh one.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
	}
	return readAPIError(resp)
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
