// Package pathao provides integration with the Pathao Courier Merchant API.
package pathao

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "pathao"

// Config holds Pathao configuration.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UseMock      bool // When true, uses mock API client
}

// Client is the Pathao courier client.
// It implements the courier.Courier and courier.Quoter interfaces and
// delegates API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Pathao client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:      cfg.BaseURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Username:     cfg.Username,
			Password:     cfg.Password,
			Timeout:      30 * time.Second,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Pathao client with a custom API client.
// This is useful for injecting mock clients in tests.
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

// Payload returns the Pathao order body a request maps to.
func (c *Client) Payload(req *courier.OrderRequest) any {
	return MapOrder(req)
}

// CreateOrder validates and books a consignment with Pathao.
func (c *Client) CreateOrder(ctx context.Context, req *courier.OrderRequest) (_ *courier.OrderResponse, err error) {
	apiReq := MapOrder(req)
	if err := Validate(&apiReq); err != nil {
		return nil, err
	}

	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "CreateOrder")
	defer func() { courier.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Creating Pathao order",
		zap.String("merchant_order_id", apiReq.MerchantOrderID),
		zap.Int("store_id", apiReq.StoreID),
		zap.Int("recipient_city", apiReq.RecipientCity),
	)

	body, err := c.apiClient.CreateOrder(ctx, &apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("Pathao API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	data, err := NormalizeCreateOrder(body)
	if err != nil {
		return nil, err
	}

	resp := &courier.OrderResponse{
		Carrier:         carrierName,
		ConsignmentID:   data.ConsignmentID,
		MerchantOrderID: data.MerchantOrderID,
		Status:          mapStatus(data.OrderStatus),
		DeliveryFee:     decimal.NewFromFloat(data.DeliveryFee),
	}
	// Pathao tracks by consignment id; tracking_code is used only without one.
	if data.ConsignmentID == "" {
		resp.TrackingCode = data.TrackingCode
	}
	return resp, nil
}

// CreateBulkOrders validates every request and submits them as one batch.
// Pathao creates the consignments asynchronously, so no ids come back.
func (c *Client) CreateBulkOrders(ctx context.Context, reqs []*courier.OrderRequest) (_ *BulkResponse, err error) {
	orders := make([]CreateOrderRequest, len(reqs))
	var errs courier.ValidationErrors
	for i, req := range reqs {
		orders[i] = MapOrder(req)
		if verr := Validate(&orders[i]); verr != nil {
			var fields courier.ValidationErrors
			errors.As(verr, &fields)
			for _, fe := range fields {
				errs.Add(fmt.Sprintf("orders[%d].%s", i, fe.Field), fe.Message)
			}
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "CreateBulkOrders")
	defer func() { courier.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Creating Pathao bulk orders", zap.Int("count", len(orders)))

	resp, err := c.apiClient.CreateBulkOrders(ctx, orders)
	if err != nil {
		c.logger.Ctx(ctx).Error("Pathao API error", zap.Error(err))
		return nil, toCourierError(err)
	}
	return resp, nil
}

// TrackOrder returns the current status of a consignment.
func (c *Client) TrackOrder(ctx context.Context, consignmentID string) (_ *courier.TrackingResponse, err error) {
	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "TrackOrder")
	defer func() { courier.EndSpan(span, err) }()

	info, err := c.apiClient.OrderInfo(ctx, consignmentID)
	if err != nil {
		c.logger.Ctx(ctx).Error("Pathao API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	resp := &courier.TrackingResponse{
		Carrier:    carrierName,
		TrackingID: info.ConsignmentID,
		Status:     mapStatus(info.OrderStatusSlug),
		RawStatus:  info.OrderStatus,
	}
	if t, err := time.Parse("2006-01-02 15:04:05", info.UpdatedAt); err == nil {
		resp.UpdatedAt = &t
	}
	return resp, nil
}

// Quote returns the delivery charge from the merchant price plan.
func (c *Client) Quote(ctx context.Context, req *courier.QuoteRequest) (_ *courier.QuoteResponse, err error) {
	mapped := MapOrder(&courier.OrderRequest{
		StoreID:  req.StoreID,
		Location: req.Location,
		Item:     req.Item,
		Delivery: req.Delivery,
	})
	var errs courier.ValidationErrors
	if mapped.StoreID <= 0 {
		errs.Add("store_id", "store is required")
	}
	if mapped.RecipientCity <= 0 {
		errs.Add("recipient_city", "city is required")
	}
	if mapped.RecipientZone <= 0 {
		errs.Add("recipient_zone", "zone is required")
	}
	if mapped.ItemWeight <= 0 {
		errs.Add("item_weight", "weight must be positive")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "Quote")
	defer func() { courier.EndSpan(span, err) }()

	plan, err := c.apiClient.PricePlan(ctx, &PricePlanRequest{
		StoreID:       mapped.StoreID,
		ItemType:      mapped.ItemType,
		DeliveryType:  mapped.DeliveryType,
		ItemWeight:    mapped.ItemWeight,
		RecipientCity: mapped.RecipientCity,
		RecipientZone: mapped.RecipientZone,
	})
	if err != nil {
		c.logger.Ctx(ctx).Error("Pathao API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	fee := decimal.NewFromFloat(plan.Price)
	cod := req.CollectAmount.Mul(decimal.NewFromFloat(plan.CODPercentage)).Round(2)
	discount := decimal.NewFromFloat(plan.Discount + plan.PromoDiscount)
	return &courier.QuoteResponse{
		Carrier:     carrierName,
		DeliveryFee: fee,
		CODCharge:   cod,
		Discount:    discount,
		Total:       decimal.NewFromFloat(plan.FinalPrice).Add(cod),
	}, nil
}

// Stores lists active pickup stores.
func (c *Client) Stores(ctx context.Context) ([]Store, error) {
	stores, err := c.apiClient.Stores(ctx)
	if err != nil {
		return nil, toCourierError(err)
	}
	active := stores[:0]
	for _, s := range stores {
		if s.IsActive == 1 {
			active = append(active, s)
		}
	}
	return active, nil
}

// Cities lists delivery cities sorted by name.
func (c *Client) Cities(ctx context.Context) ([]City, error) {
	cities, err := c.apiClient.Cities(ctx)
	if err != nil {
		return nil, toCourierError(err)
	}
	sort.SliceStable(cities, func(i, j int) bool { return cities[i].CityName < cities[j].CityName })
	return cities, nil
}

// Zones lists the zones of a city.
func (c *Client) Zones(ctx context.Context, cityID int) ([]Zone, error) {
	if cityID <= 0 {
		return nil, nil
	}
	zones, err := c.apiClient.Zones(ctx, cityID)
	if err != nil {
		return nil, toCourierError(err)
	}
	return zones, nil
}

// Areas lists the areas of a zone.
func (c *Client) Areas(ctx context.Context, zoneID int) ([]Area, error) {
	if zoneID <= 0 {
		return nil, nil
	}
	areas, err := c.apiClient.Areas(ctx, zoneID)
	if err != nil {
		return nil, toCourierError(err)
	}
	return areas, nil
}

// toCourierError converts API and transport failures into courier errors.
// The provider's "message" field becomes the operator-facing message; field
// errors are folded into the detail.
func toCourierError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return courier.NewTransportError(carrierName, err)
	}

	ce := courier.NewHTTPError(carrierName, apiErr.StatusCode, apiErr.Message)
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
		ce.WithDetail(strings.Join(parts, "; "))
	} else if apiErr.Body != "" {
		ce.WithDetail(apiErr.Body)
	}
	return ce
}

var _ courier.Quoter = (*Client)(nil)
