// Package courier provides an abstraction layer for last-mile courier providers.
package courier

import (
	"context"
)

// Courier defines the interface that all courier providers must implement.
type Courier interface {
	// Name returns the provider identifier (e.g., "pathao", "redx", "steadfast").
	Name() string

	// Payload maps a normalized order request into the provider's wire schema
	// without validating it. Used to preview a pre-filled form.
	Payload(req *OrderRequest) any

	// CreateOrder validates the request, submits it to the provider and
	// returns the normalized response.
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)

	// TrackOrder returns the current delivery status of a consignment.
	TrackOrder(ctx context.Context, trackingID string) (*TrackingResponse, error)
}

// Quoter is implemented by providers that expose a delivery charge calculator.
type Quoter interface {
	Courier

	// Quote returns the delivery charge for a prospective parcel.
	Quote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
}
