package redx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Areas lists delivery areas.
// GET /areas, /areas?post_code=, /areas?district_name=
func (c *HTTPAPIClient) Areas(ctx context.Context, q AreaQuery) ([]Area, error) {
	v, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode area query: %w", err)
	}

	var out areasResponse
	if err := c.get(ctx, "/areas", v, &out); err != nil {
		return nil, err
	}
	return out.Areas, nil
}

// PickupStores lists the merchant's pickup stores.
// GET /pickup/stores
func (c *HTTPAPIClient) PickupStores(ctx context.Context) ([]PickupStore, error) {
	var out pickupStoresResponse
	if err := c.get(ctx, "/pickup/stores", nil, &out); err != nil {
		return nil, err
	}
	return out.PickupStores, nil
}

// CreateParcel books a parcel.
// POST /parcel
func (c *HTTPAPIClient) CreateParcel(ctx context.Context, req *ParcelRequest) (*ParcelResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/parcel", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, parseError(resp)
	}

	var result ParcelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode parcel response: %w", err)
	}
	return &result, nil
}

// TrackParcel returns the tracking history of a parcel.
// GET /parcel/track/{tracking_id}
func (c *HTTPAPIClient) TrackParcel(ctx context.Context, trackingID string) ([]TrackingEntry, error) {
	var out trackingResponse
	if err := c.get(ctx, "/parcel/track/"+url.PathEscape(trackingID), nil, &out); err != nil {
		return nil, err
	}
	return out.Tracking, nil
}

// ParcelInfo returns the details of a parcel.
// GET /parcel/info/{tracking_id}
func (c *HTTPAPIClient) ParcelInfo(ctx context.Context, trackingID string) (*ParcelInfo, error) {
	var out parcelInfoResponse
	if err := c.get(ctx, "/parcel/info/"+url.PathEscape(trackingID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Parcel, nil
}

// CalculateCharge estimates delivery and COD charges.
// GET /charge/charge_calculator
func (c *HTTPAPIClient) CalculateCharge(ctx context.Context, q ChargeQuery) (*ChargeResponse, error) {
	v, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge query: %w", err)
	}

	var out ChargeResponse
	if err := c.get(ctx, "/charge/charge_calculator", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (c *HTTPAPIClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
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
	req.Header.Set("API-ACCESS-TOKEN", "Bearer "+c.accessToken)
	req.Header.Set("User-Agent", "courier-bridge/1.0")

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
