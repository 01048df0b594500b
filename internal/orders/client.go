package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// ErrOrderNotFound is returned when an order id is not in the company's list.
var ErrOrderNotFound = errors.New("order not found")

// APIError is a non-2xx response from the order API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("order api: status %d: %s", e.StatusCode, e.Message)
}

type counter interface {
	Inc()
}

// RetryConfig controls retries of the order list fetch.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// ClientConfig holds order API configuration.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retry   RetryConfig
}

// Client talks to the back-office order API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      RetryConfig
	retries    counter
	logger     *otelzap.Logger
}

// NewClient creates an order API client. retries may be nil.
func NewClient(cfg ClientConfig, logger *otelzap.Logger, retries counter) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		retry:      cfg.Retry,
		retries:    retries,
		logger:     logger,
	}
}

type listQuery struct {
	CompanyID string `url:"companyId"`
}

// List returns every order of a company.
// GET /orders?companyId=
//
// Transport failures, 429 and 5xx responses are retried with exponential
// backoff.
func (c *Client) List(ctx context.Context, companyID string) ([]Order, error) {
	v, err := query.Values(listQuery{CompanyID: companyID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode order query: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		orders, err := c.list(ctx, v)
		if err == nil {
			return orders, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == c.retry.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(c.retry.BaseDelay, c.retry.MaxDelay, attempt)
		if c.retries != nil {
			c.retries.Inc()
		}
		c.logger.Ctx(ctx).Warn("order list retry",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) list(ctx context.Context, v url.Values) ([]Order, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/orders?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	return decodeOrders(body)
}

// decodeOrders accepts a bare array or an object with a "data" array.
func decodeOrders(body []byte) ([]Order, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data []Order `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("failed to decode orders: %w", err)
		}
		return env.Data, nil
	}

	var orders []Order
	if err := json.Unmarshal(trimmed, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// Get returns one order of a company.
func (c *Client) Get(ctx context.Context, companyID, orderID string) (*Order, error) {
	orders, err := c.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
}

// Ship records the courier consignment on an order. It is never retried.
// PATCH /orders/{id}/ship
func (c *Client) Ship(ctx context.Context, u ShipmentUpdate) error {
	resp, err := c.doRequest(ctx, http.MethodPatch, "/orders/"+url.PathEscape(u.OrderID)+"/ship", u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
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
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// backoff doubles base per attempt, capped at max. Doubling stops once the
// cap is reached so large attempt counts cannot overflow.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
