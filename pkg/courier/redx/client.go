// Package redx provides integration with the RedX OpenAPI.
package redx

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

const carrierName = "redx"

// Config holds RedX configuration.
type Config struct {
	BaseURL     string
	AccessToken string
	UseMock     bool // When true, uses mock API client
}

// Client is the RedX courier client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new RedX client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:     cfg.BaseURL,
			AccessToken: cfg.AccessToken,
			Timeout:     30 * time.Second,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new RedX client with a custom API client.
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

// Payload returns the RedX parcel body a request maps to.
func (c *Client) Payload(req *courier.OrderRequest) any {
	return MapParcel(req)
}

// CreateOrder validates and books a parcel with RedX. When the request
// carries an area name without an id, the id is resolved from the area
// list selected by the location's post code or district.
func (c *Client) CreateOrder(ctx context.Context, req *courier.OrderRequest) (_ *courier.OrderResponse, err error) {
	parcel := MapParcel(req)
	if err := Validate(&parcel); err != nil {
		return nil, err
	}

	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "CreateOrder")
	defer func() { courier.EndSpan(span, err) }()

	if parcel.DeliveryAreaID <= 0 {
		area, err := c.resolveArea(ctx, FilterFor(req.Location), parcel.DeliveryArea)
		if err != nil {
			return nil, err
		}
		parcel.DeliveryAreaID = area.ID
	}

	c.logger.Ctx(ctx).Info("Creating RedX parcel",
		zap.String("merchant_invoice_id", parcel.MerchantInvoiceID),
		zap.String("delivery_area", parcel.DeliveryArea),
		zap.Int("delivery_area_id", parcel.DeliveryAreaID),
	)

	resp, err := c.apiClient.CreateParcel(ctx, &parcel)
	if err != nil {
		c.logger.Ctx(ctx).Error("RedX API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	return &courier.OrderResponse{
		Carrier:         carrierName,
		TrackingCode:    resp.TrackingID,
		MerchantOrderID: parcel.MerchantInvoiceID,
		Status:          courier.StatusPending,
	}, nil
}

// TrackOrder returns the current status of a parcel with its history.
func (c *Client) TrackOrder(ctx context.Context, trackingID string) (_ *courier.TrackingResponse, err error) {
	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "TrackOrder")
	defer func() { courier.EndSpan(span, err) }()

	info, err := c.apiClient.ParcelInfo(ctx, trackingID)
	if err != nil {
		c.logger.Ctx(ctx).Error("RedX API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	history, err := c.apiClient.TrackParcel(ctx, trackingID)
	if err != nil {
		c.logger.Ctx(ctx).Error("RedX API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	resp := &courier.TrackingResponse{
		Carrier:    carrierName,
		TrackingID: info.TrackingID,
		Status:     mapStatus(info.Status),
		RawStatus:  info.Status,
	}
	for _, h := range history {
		ts, perr := time.Parse(time.RFC3339, h.Time)
		if perr != nil {
			continue
		}
		resp.Events = append(resp.Events, courier.TrackingEvent{Timestamp: ts, Description: h.MessageEN})
	}
	sort.SliceStable(resp.Events, func(i, j int) bool { return resp.Events[i].Timestamp.Before(resp.Events[j].Timestamp) })
	if n := len(resp.Events); n > 0 {
		last := resp.Events[n-1].Timestamp
		resp.UpdatedAt = &last
	}
	return resp, nil
}

// Quote returns the delivery and COD charge from the charge calculator.
// The pickup area defaults to the first pickup store's area.
func (c *Client) Quote(ctx context.Context, req *courier.QuoteRequest) (_ *courier.QuoteResponse, err error) {
	var errs courier.ValidationErrors
	if req.Location.AreaID <= 0 && req.Location.AreaName == "" {
		errs.Add("delivery_area", "delivery area is required")
	}
	if req.Item.WeightKG <= 0 {
		errs.Add("parcel_weight", "weight must be positive")
	}
	if req.CollectAmount.IsNegative() {
		errs.Add("cash_collection_amount", "cash collection amount cannot be negative")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	ctx, span := courier.StartSpan(ctx, c.tracer, carrierName, "Quote")
	defer func() { courier.EndSpan(span, err) }()

	deliveryAreaID := req.Location.AreaID
	if deliveryAreaID <= 0 {
		area, err := c.resolveArea(ctx, FilterFor(req.Location), req.Location.AreaName)
		if err != nil {
			return nil, err
		}
		deliveryAreaID = area.ID
	}

	pickupAreaID := req.PickupAreaID
	if pickupAreaID <= 0 {
		stores, err := c.apiClient.PickupStores(ctx)
		if err != nil {
			return nil, toCourierError(err)
		}
		if len(stores) == 0 {
			return nil, courier.NewCourierError(carrierName, "NO_PICKUP_STORE", "No pickup store is configured.").
				WithCause(courier.ErrInvalidRequest)
		}
		pickupAreaID = stores[0].AreaID
	}

	charge, err := c.apiClient.CalculateCharge(ctx, ChargeQuery{
		DeliveryAreaID:       deliveryAreaID,
		PickupAreaID:         pickupAreaID,
		CashCollectionAmount: req.CollectAmount.String(),
		Weight:               MapParcel(&courier.OrderRequest{Item: req.Item}).ParcelWeight,
	})
	if err != nil {
		c.logger.Ctx(ctx).Error("RedX API error", zap.Error(err))
		return nil, toCourierError(err)
	}

	fee := decimal.NewFromFloat(charge.DeliveryCharge)
	cod := decimal.NewFromFloat(charge.CODCharge).Round(2)
	return &courier.QuoteResponse{
		Carrier:     carrierName,
		DeliveryFee: fee,
		CODCharge:   cod,
		Discount:    decimal.Zero,
		Total:       fee.Add(cod),
	}, nil
}

// Areas lists delivery areas for a filter.
func (c *Client) Areas(ctx context.Context, f AreaFilter) ([]Area, error) {
	if f.Mode != AreaModeAll && strings.TrimSpace(f.Value) == "" {
		return nil, nil
	}
	areas, err := c.apiClient.Areas(ctx, f.Query())
	if err != nil {
		return nil, toCourierError(err)
	}
	return areas, nil
}

// PickupStores lists the merchant's pickup stores.
func (c *Client) PickupStores(ctx context.Context) ([]PickupStore, error) {
	stores, err := c.apiClient.PickupStores(ctx)
	if err != nil {
		return nil, toCourierError(err)
	}
	return stores, nil
}

func (c *Client) resolveArea(ctx context.Context, f AreaFilter, name string) (Area, error) {
	areas, err := c.Areas(ctx, f)
	if err != nil {
		return Area{}, err
	}
	area, ok := ResolveArea(areas, name)
	if !ok {
		return Area{}, fmt.Errorf("%w: %q", courier.ErrAreaNotFound, name)
	}
	return area, nil
}

// toCourierError converts API and transport failures into courier errors.
func toCourierError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return courier.NewTransportError(carrierName, err)
	}

	ce := courier.NewHTTPError(carrierName, apiErr.StatusCode, apiErr.Message)
	if len(apiErr.ValidationErrors) > 0 {
		keys := make([]string, 0, len(apiErr.ValidationErrors))
		for k := range apiErr.ValidationErrors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %v", k, apiErr.ValidationErrors[k])
		}
		ce.WithDetail(strings.Join(parts, "; "))
	} else if apiErr.Body != "" {
		ce.WithDetail(apiErr.Body)
	}
	return ce
}

var _ courier.Quoter = (*Client)(nil)
