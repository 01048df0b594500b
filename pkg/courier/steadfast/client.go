// Package steadfast provides integration with the Steadfast Courier API.
package steadfast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "steadfast"

// Config holds Steadfast configuration.
type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	UseMock   bool // When true, uses mock API client
}

// Client is the Steadfast courier client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Steadfast client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			SecretKey: cfg.SecretKey,
			Timeout:   30 * time.Second,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Steadfast client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    courier.Tracer(tracer),
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Payload returns the Steadfast order body a request maps to.
func (c *Client) Payload(req *courier.OrderRequest) any {
	return MapOrder(req)
}

// CreateOrder validates and books a consignment with Steadfast.
func (c *Client) CreateOrder(ctx context.Context, req *courier.OrderRequest) (_ *courier.OrderResponse, err error) {
	apiReq := MapOrder(req)
	if err := Validate(&apiReq); err != nil {
		return nil, err
	}

	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "CreateOrder")
	defer func() { courier.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Creating Steadfast order",
		zap.String("invoice", apiReq.Invoice),
		zap.Int("delivery_type", apiReq.DeliveryType),
	)

	cons, err := c.apiClient.CreateOrder(ctx, &apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("Steadfast API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	return &courier.OrderResponse{
		Carrier:         carrierName,
		ConsignmentID:   consignmentID(cons.ConsignmentID),
		TrackingCode:    cons.TrackingCode,
		MerchantOrderID: cons.Invoice,
		Status:          mapStatus(cons.Status),
		DeliveryFee:     decimal.Zero,
	}, nil
}

// CreateBulkOrders validates the whole batch, then submits it in one call.
// Per-item results are returned as the provider reports them.
func (c *Client) CreateBulkOrders(ctx context.Context, orders []OrderRequest) (_ []BulkResult, err error) {
	if err := ValidateBulk(orders); err != nil {
		return nil, err
	}

	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "CreateBulkOrders")
	defer func() { courier.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Creating Steadfast bulk orders", zap.Int("count", len(orders)))

	results, err := c.apiClient.CreateBulkOrders(ctx, orders)
	if err != nil {
		c.logger.Ctx(ctx).Error("Steadfast API error", zap.Error(err))
		return nil, toCourierError(err)
	}
	return results, nil
}

// TrackOrder returns the delivery status of a consignment by tracking code.
func (c *Client) TrackOrder(ctx context.Context, trackingCode string) (*courier.TrackingResponse, error) {
	return c.Status(ctx, LookupTrackingCode, trackingCode)
}

// Status returns the delivery status of a consignment looked up by
// consignment id, invoice or tracking code.
func (c *Client) Status(ctx context.Context, kind LookupKind, id string) (_ *courier.TrackingResponse, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, courier.ValidationErrors{{Field: string(kind), Message: "identifier is required"}}
	}
	switch kind {
	case LookupConsignmentID, LookupInvoice, LookupTrackingCode:
	default:
		return nil, courier.ValidationErrors{{Field: "kind", Message: fmt.Sprintf("unknown lookup kind %q", kind)}}
	}

	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "Status")
	defer func() { courier.EndSpan(span, err) }()

	status, err := c.apiClient.Status(ctx, kind, id)
	if err != nil {
		c.logger.Ctx(ctx).Error("Steadfast API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	return &courier.TrackingResponse{
		Carrier:    carrierName,
		TrackingID: id,
		Status:     mapStatus(status),
		RawStatus:  status,
	}, nil
}

// Balance returns the merchant's current balance.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	b, err := c.apiClient.Balance(ctx)
	if err != nil {
		return decimal.Zero, toCourierError(err)
	}
	return decimal.NewFromFloat(b), nil
}

// Payments lists payouts.
func (c *Client) Payments(ctx context.Context) ([]Payment, error) {
	p, err := c.apiClient.Payments(ctx)
	if err != nil {
		return nil, toCourierError(err)
	}
	return p, nil
}

// Payment returns one payout.
func (c *Client) Payment(ctx context.Context, id int) (*Payment, error) {
	p, err := c.apiClient.Payment(ctx, id)
	if err != nil {
		return nil, toCourierError(err)
	}
	return p, nil
}

// CreateReturnRequest opens a return for a consignment.
func (c *Client) CreateReturnRequest(ctx context.Context, req *ReturnRequestInput) (*ReturnRequest, error) {
	set := 0
	if req.ConsignmentID > 0 {
		set++
	}
	if req.Invoice != "" {
		set++
	}
	if req.TrackingCode != "" {
		set++
	}
	if set != 1 {
		return nil, courier.ValidationErrors{{Field: "consignment_id", Message: "exactly one of consignment id, invoice or tracking code is required"}}
	}

	c.logger.Ctx(ctx).Info("Creating Steadfast return request",
		zap.Int64("consignment_id", req.ConsignmentID),
		zap.String("invoice", req.Invoice),
		zap.String("tracking_code", req.TrackingCode),
	)

	r, err := c.apiClient.CreateReturnRequest(ctx, req)
	if err != nil {
		c.logger.Ctx(ctx).Error("Steadfast API error", zap.Error(err))
		return nil, toCourierError(err)
	}
	return r, nil
}

// ReturnRequests lists return requests.
func (c *Client) ReturnRequests(ctx context.Context) ([]ReturnRequest, error) {
	r, err := c.apiClient.ReturnRequests(ctx)
	if err != nil {
		return nil, toCourierError(err)
	}
	return r, nil
}

// ReturnRequest returns one return request.
func (c *Client) ReturnRequest(ctx context.Context, id int) (*ReturnRequest, error) {
	r, err := c.apiClient.ReturnRequest(ctx, id)
	if err != nil {
		return nil, toCourierError(err)
	}
	return r, nil
}

// PoliceStations lists police stations.
func (c *Client) PoliceStations(ctx context.Context) ([]PoliceStation, error) {
	p, err := c.apiClient.PoliceStations(ctx)
	if err != nil {
		return nil, toCourierError(err)
	}
	return p, nil
}

func consignmentID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// toCourierError converts API and transport failures into courier errors.
// Rate-limit and credential failures keep the provider text as detail and
// ask for a long notice.
func toCourierError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return courier.NewTransportError(carrierName, err)
	}

	ce := courier.NewHTTPError(carrierName, apiErr.StatusCode, apiErr.Message)

	var detail string
	if len(apiErr.Errors) > 0 {
		keys := make([]string, 0, len(apiErr.Errors))
		for k := range apiErr.Errors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %v", k, apiErr.Errors[k])
		}
		detail = strings.Join(parts, "; ")
	} else if apiErr.Body != "" {
		detail = apiErr.Body
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests, http.StatusUnauthorized:
		if detail == "" {
			detail = apiErr.Message
		}
		ce.WithLongNotice()
	}
	if detail != "" {
		ce.WithDetail(detail)
	}
	return ce
}

var _ courier.Courier = (*Client)(nil)
