package redx

import (
	"context"
	"fmt"
)

// APIClient defines the interface for RedX OpenAPI operations.
type APIClient interface {
	// Areas lists delivery areas, optionally filtered by post code or district
	Areas(ctx context.Context, q AreaQuery) ([]Area, error)

	// PickupStores lists the merchant's pickup stores
	PickupStores(ctx context.Context) ([]PickupStore, error)

	// CreateParcel books a parcel and returns its tracking id
	CreateParcel(ctx context.Context, req *ParcelRequest) (*ParcelResponse, error)

	// TrackParcel returns the tracking history of a parcel
	TrackParcel(ctx context.Context, trackingID string) ([]TrackingEntry, error)

	// ParcelInfo returns the current details of a parcel
	ParcelInfo(ctx context.Context, trackingID string) (*ParcelInfo, error)

	// CalculateCharge estimates the delivery and COD charges
	CalculateCharge(ctx context.Context, q ChargeQuery) (*ChargeResponse, error)
}

// ============================================================================
// API Request/Response Types (match RedX OpenAPI v1.0.0-beta)
// ============================================================================

// AreaQuery selects the area list variant. At most one filter is sent.
type AreaQuery struct {
	PostCode     string `url:"post_code,omitempty"`
	DistrictName string `url:"district_name,omitempty"`
}

// Area is a RedX delivery area.
type Area struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PostCode     int    `json:"post_code"`
	DivisionName string `json:"division_name"`
	ZoneID       int    `json:"zone_id"`
}

type areasResponse struct {
	Areas []Area `json:"areas"`
}

// PickupStore is a merchant pickup location.
type PickupStore struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	AreaName string `json:"area_name"`
	AreaID   int    `json:"area_id"`
	Phone    string `json:"phone"`
}

type pickupStoresResponse struct {
	PickupStores []PickupStore `json:"pickup_stores"`
}

// ParcelRequest represents a RedX parcel creation request.
// POST /parcel
type ParcelRequest struct {
	CustomerName         string `json:"customer_name"`
	CustomerPhone        string `json:"customer_phone"`
	DeliveryArea         string `json:"delivery_area"`
	DeliveryAreaID       int    `json:"delivery_area_id"`
	CustomerAddress      string `json:"customer_address"`
	MerchantInvoiceID    string `json:"merchant_invoice_id,omitempty"`
	CashCollectionAmount string `json:"cash_collection_amount"`
	ParcelWeight         int    `json:"parcel_weight"`
	Instruction          string `json:"instruction,omitempty"`
	Value                string `json:"value"`
	PickupStoreID        int    `json:"pickup_store_id,omitempty"`
}

// ParcelResponse is the response of POST /parcel.
type ParcelResponse struct {
	TrackingID string `json:"tracking_id"`
}

// TrackingEntry is one step in a parcel's history.
type TrackingEntry struct {
	MessageEN string `json:"message_en"`
	MessageBN string `json:"message_bn"`
	Time      string `json:"time"`
}

type trackingResponse struct {
	Tracking []TrackingEntry `json:"tracking"`
}

// ParcelInfo is the parcel detail returned by GET /parcel/info/{id}.
type ParcelInfo struct {
	TrackingID           string  `json:"tracking_id"`
	CustomerName         string  `json:"customer_name"`
	CustomerPhone        string  `json:"customer_phone"`
	CustomerAddress      string  `json:"customer_address"`
	DeliveryArea         string  `json:"delivery_area"`
	DeliveryAreaID       int     `json:"delivery_area_id"`
	Charge               float64 `json:"charge"`
	CashCollectionAmount float64 `json:"cash_collection_amount"`
	ParcelWeight         int     `json:"parcel_weight"`
	MerchantInvoiceID    string  `json:"merchant_invoice_id"`
	Status               string  `json:"status"`
	Instruction          string  `json:"instruction"`
	CreatedAt            string  `json:"created_at"`
}

type parcelInfoResponse struct {
	Parcel ParcelInfo `json:"parcel"`
}

// ChargeQuery is the query for GET /charge/charge_calculator.
type ChargeQuery struct {
	DeliveryAreaID       int    `url:"delivery_area_id"`
	PickupAreaID         int    `url:"pickup_area_id"`
	CashCollectionAmount string `url:"cash_collection_amount"`
	Weight               int    `url:"weight"`
}

// ChargeResponse is the charge calculator result.
type ChargeResponse struct {
	DeliveryCharge float64 `json:"deliveryCharge"`
	CODCharge      float64 `json:"codCharge"`
}

// APIError represents an error from the RedX API.
type APIError struct {
	StatusCode       int            `json:"-"`
	Message          string         `json:"message"`
	ValidationErrors map[string]any `json:"validation_errors,omitempty"`
	// Body holds a response body that was not a JSON error envelope.
	Body string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("redx api: status %d", e.StatusCode)
}
