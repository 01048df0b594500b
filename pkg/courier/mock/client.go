// Package mock provides a mock courier implementation for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/courier/pkg/courier"
)

// Client is a mock courier for testing. It records every order it books.
type Client struct {
	name string
	fee  decimal.Decimal

	// Err, when set, is returned by CreateOrder and TrackOrder.
	Err error
	// TrackingID, when set, overrides the generated tracking id.
	TrackingID string
	// NoTracking makes CreateOrder succeed without a tracking id.
	NoTracking bool

	mu     sync.Mutex
	orders []*courier.OrderRequest
}

// New creates a new mock courier that charges fee per consignment.
func New(name string, fee int64) *Client {
	return &Client{name: name, fee: decimal.NewFromInt(fee)}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// Payload returns the request unchanged.
func (c *Client) Payload(req *courier.OrderRequest) any {
	return req
}

// CreateOrder books a mock consignment.
func (c *Client) CreateOrder(ctx context.Context, req *courier.OrderRequest) (*courier.OrderResponse, error) {
	c.mu.Lock()
	c.orders = append(c.orders, req)
	c.mu.Unlock()

	if c.Err != nil {
		return nil, c.Err
	}

	trackingID := c.TrackingID
	if trackingID == "" && !c.NoTracking {
		trackingID = fmt.Sprintf("%s-%d", c.name, time.Now().UnixNano())
	}

	return &courier.OrderResponse{
		Carrier:         c.name,
		ConsignmentID:   trackingID,
		MerchantOrderID: req.MerchantOrderID,
		Status:          courier.StatusPending,
		DeliveryFee:     c.fee,
	}, nil
}

// TrackOrder reports every consignment as in transit.
func (c *Client) TrackOrder(ctx context.Context, trackingID string) (*courier.TrackingResponse, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	now := time.Now()
	return &courier.TrackingResponse{
		Carrier:    c.name,
		TrackingID: trackingID,
		Status:     courier.StatusInTransit,
		RawStatus:  "in_transit",
		UpdatedAt:  &now,
	}, nil
}

// Orders returns the requests booked so far.
func (c *Client) Orders() []*courier.OrderRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*courier.OrderRequest, len(c.orders))
	copy(out, c.orders)
	return out
}

// Quoter is a mock courier that also quotes delivery charges.
type Quoter struct {
	*Client

	// QuoteErr, when set, is returned by Quote.
	QuoteErr error
}

// NewQuoter creates a mock courier with a flat-fee charge calculator.
func NewQuoter(name string, fee int64) *Quoter {
	return &Quoter{Client: New(name, fee)}
}

// Quote returns the flat fee plus a 1% COD charge.
func (q *Quoter) Quote(ctx context.Context, req *courier.QuoteRequest) (*courier.QuoteResponse, error) {
	if q.QuoteErr != nil {
		return nil, q.QuoteErr
	}
	cod := req.CollectAmount.Mul(decimal.RequireFromString("0.01")).Round(2)
	return &courier.QuoteResponse{
		Carrier:     q.name,
		DeliveryFee: q.fee,
		CODCharge:   cod,
		Discount:    decimal.Zero,
		Total:       q.fee.Add(cod),
	}, nil
}

var (
	_ courier.Courier = (*Client)(nil)
	_ courier.Quoter  = (*Quoter)(nil)
)
