package steadfast

import (
	"context"
	"encoding/json"
	"fmt"
)

// APIClient defines the interface for Steadfast Courier API operations.
type APIClient interface {
	// CreateOrder books a single consignment
	CreateOrder(ctx context.Context, req *OrderRequest) (*Consignment, error)

	// CreateBulkOrders books up to MaxBulkOrders consignments in one call
	CreateBulkOrders(ctx context.Context, orders []OrderRequest) ([]BulkResult, error)

	// Status returns the delivery status of a consignment looked up by kind
	Status(ctx context.Context, kind LookupKind, id string) (string, error)

	// Balance returns the merchant's current balance
	Balance(ctx context.Context) (float64, error)

	// Payments lists payouts
	Payments(ctx context.Context) ([]Payment, error)

	// Payment returns one payout with its consignments
	Payment(ctx context.Context, id int) (*Payment, error)

	// CreateReturnRequest opens a return for a consignment
	CreateReturnRequest(ctx context.Context, req *ReturnRequestInput) (*ReturnRequest, error)

	// ReturnRequests lists return requests
	ReturnRequests(ctx context.Context) ([]ReturnRequest, error)

	// ReturnRequest returns one return request
	ReturnRequest(ctx context.Context, id int) (*ReturnRequest, error)

	// PoliceStations lists police stations
	PoliceStations(ctx context.Context) ([]PoliceStation, error)
}

// MaxBulkOrders is the largest batch the bulk endpoint accepts.
const MaxBulkOrders = 500

// Delivery types.
const (
	DeliveryStandard = 0
	DeliveryExpress  = 1
)

// LookupKind selects the identifier a status lookup uses.
type LookupKind string

const (
	LookupConsignmentID LookupKind = "cid"
	LookupInvoice       LookupKind = "invoice"
	LookupTrackingCode  LookupKind = "trackingcode"
)

// ============================================================================
// API Request/Response Types (match Steadfast Courier API v1)
// ============================================================================

// OrderRequest represents a Steadfast order creation request.
// POST /create_order
type OrderRequest struct {
	Invoice          string  `json:"invoice"`
	RecipientName    string  `json:"recipient_name"`
	RecipientPhone   string  `json:"recipient_phone"`
	AlternativePhone string  `json:"alternative_phone,omitempty"`
	RecipientEmail   string  `json:"recipient_email,omitempty"`
	RecipientAddress string  `json:"recipient_address"`
	CODAmount        float64 `json:"cod_amount"`
	Note             string  `json:"note,omitempty"`
	ItemDescription  string  `json:"item_description,omitempty"`
	TotalLot         int     `json:"total_lot,omitempty"`
	DeliveryType     int     `json:"delivery_type"`
}

// Consignment is a booked Steadfast consignment.
type Consignment struct {
	ConsignmentID    int64   `json:"consignment_id"`
	Invoice          string  `json:"invoice"`
	TrackingCode     string  `json:"tracking_code"`
	RecipientName    string  `json:"recipient_name"`
	RecipientPhone   string  `json:"recipient_phone"`
	RecipientAddress string  `json:"recipient_address"`
	CODAmount        float64 `json:"cod_amount"`
	Status           string  `json:"status"`
	Note             string  `json:"note"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// response is the common Steadfast envelope. Some failures come back with
// HTTP 200 and a non-200 "status" field.
type response struct {
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Errors  map[string]any `json:"errors,omitempty"`

	Consignment    *Consignment    `json:"consignment,omitempty"`
	DeliveryStatus string          `json:"delivery_status,omitempty"`
	CurrentBalance float64         `json:"current_balance,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// BulkResult is the provider's per-item outcome of a bulk submission.
type BulkResult struct {
	Invoice          string  `json:"invoice"`
	RecipientName    string  `json:"recipient_name"`
	RecipientAddress string  `json:"recipient_address"`
	RecipientPhone   string  `json:"recipient_phone"`
	CODAmount        float64 `json:"cod_amount"`
	Note             string  `json:"note,omitempty"`
	ConsignmentID    int64   `json:"consignment_id,omitempty"`
	TrackingCode     string  `json:"tracking_code,omitempty"`
	Status           string  `json:"status"`
	Error            string  `json:"error,omitempty"`
}

// Payment is a merchant payout.
type Payment struct {
	ID           int               `json:"id"`
	Amount       float64           `json:"amount"`
	Status       string            `json:"status"`
	CreatedAt    string            `json:"created_at"`
	Consignments []json.RawMessage `json:"consignments,omitempty"`
}

// ReturnRequestInput identifies the consignment to return. Exactly one of
// ConsignmentID, Invoice or TrackingCode should be set.
type ReturnRequestInput struct {
	ConsignmentID int64  `json:"consignment_id,omitempty"`
	Invoice       string `json:"invoice,omitempty"`
	TrackingCode  string `json:"tracking_code,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// ReturnRequest is a return raised against a consignment.
type ReturnRequest struct {
	ID            int    `json:"id"`
	UserID        int    `json:"user_id"`
	ConsignmentID int64  `json:"consignment_id"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// PoliceStation is a police station served by Steadfast.
type PoliceStation struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// APIError represents an error from the Steadfast API.
type APIError struct {
	StatusCode int            `json:"-"`
	Message    string         `json:"message"`
	Errors     map[string]any `json:"errors,omitempty"`
	// Body holds a response body that was not a JSON error envelope.
	Body string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("steadfast api: status %d", e.StatusCode)
}
