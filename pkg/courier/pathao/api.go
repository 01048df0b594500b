package pathao

import (
	"context"
	"encoding/json"
	"fmt"
)

// APIClient defines the interface for Pathao Merchant API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// Stores lists the merchant's pickup stores
	Stores(ctx context.Context) ([]Store, error)

	// Cities lists delivery cities
	Cities(ctx context.Context) ([]City, error)

	// Zones lists the zones of a city
	Zones(ctx context.Context, cityID int) ([]Zone, error)

	// Areas lists the areas of a zone
	Areas(ctx context.Context, zoneID int) ([]Area, error)

	// CreateOrder books a single consignment. The raw body is returned so the
	// caller can normalize the envelope.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (json.RawMessage, error)

	// CreateBulkOrders books a batch of consignments asynchronously
	CreateBulkOrders(ctx context.Context, orders []CreateOrderRequest) (*BulkResponse, error)

	// PricePlan calculates the delivery charge
	PricePlan(ctx context.Context, req *PricePlanRequest) (*PricePlan, error)

	// OrderInfo returns the short status of a consignment
	OrderInfo(ctx context.Context, consignmentID string) (*OrderInfo, error)
}

// ============================================================================
// API Request/Response Types (match Pathao Merchant API v1 structure)
// ============================================================================

// Delivery types.
const (
	DeliveryNormal   = 48
	DeliveryOnDemand = 12
)

// Item types.
const (
	ItemDocument = 1
	ItemParcel   = 2
)

// envelope is the standard Pathao response wrapper.
type envelope struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// listData wraps list endpoints: {"data": {"data": [...]}}.
type listData[T any] struct {
	Data []T `json:"data"`
}

// tokenRequest is the body for POST /aladdin/api/v1/issue-token.
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

type tokenResponse struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store is a merchant pickup store.
type Store struct {
	StoreID      int    `json:"store_id"`
	StoreName    string `json:"store_name"`
	StoreAddress string `json:"store_address"`
	IsActive     int    `json:"is_active"`
	CityID       int    `json:"city_id"`
	ZoneID       int    `json:"zone_id"`
	HubID        int    `json:"hub_id"`
}

// City is a Pathao delivery city.
type City struct {
	CityID   int    `json:"city_id"`
	CityName string `json:"city_name"`
}

// Zone is a zone within a city.
type Zone struct {
	ZoneID   int    `json:"zone_id"`
	ZoneName string `json:"zone_name"`
}

// Area is an area within a zone.
type Area struct {
	AreaID                int    `json:"area_id"`
	AreaName              string `json:"area_name"`
	HomeDeliveryAvailable bool   `json:"home_delivery_available"`
	PickupAvailable       bool   `json:"pickup_available"`
}

// CreateOrderRequest represents a Pathao order creation request.
// POST /aladdin/api/v1/orders
type CreateOrderRequest struct {
	StoreID            int     `json:"store_id"`
	MerchantOrderID    string  `json:"merchant_order_id,omitempty"`
	RecipientName      string  `json:"recipient_name"`
	RecipientPhone     string  `json:"recipient_phone"`
	RecipientAddress   string  `json:"recipient_address"`
	RecipientCity      int     `json:"recipient_city"`
	RecipientZone      int     `json:"recipient_zone"`
	RecipientArea      int     `json:"recipient_area,omitempty"`
	DeliveryType       int     `json:"delivery_type"`
	ItemType           int     `json:"item_type"`
	SpecialInstruction string  `json:"special_instruction,omitempty"`
	ItemQuantity       int     `json:"item_quantity"`
	ItemWeight         float64 `json:"item_weight"`
	AmountToCollect    int64   `json:"amount_to_collect"`
	ItemDescription    string  `json:"item_description,omitempty"`
}

// CreateOrderData is the normalized payload of a successful order creation.
type CreateOrderData struct {
	ConsignmentID   string  `json:"consignment_id"`
	TrackingCode    string  `json:"tracking_code"`
	MerchantOrderID string  `json:"merchant_order_id"`
	OrderStatus     string  `json:"order_status"`
	DeliveryFee     float64 `json:"delivery_fee"`
}

// BulkResponse is the acknowledgement of POST /aladdin/api/v1/orders/bulk.
type BulkResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Data    bool   `json:"data"`
}

// PricePlanRequest represents POST /aladdin/api/v1/merchant/price-plan.
type PricePlanRequest struct {
	StoreID       int     `json:"store_id"`
	ItemType      int     `json:"item_type"`
	DeliveryType  int     `json:"delivery_type"`
	ItemWeight    float64 `json:"item_weight"`
	RecipientCity int     `json:"recipient_city"`
	RecipientZone int     `json:"recipient_zone"`
}

// PricePlan is the delivery charge breakdown.
type PricePlan struct {
	Price            float64 `json:"price"`
	Discount         float64 `json:"discount"`
	PromoDiscount    float64 `json:"promo_discount"`
	PlanID           int     `json:"plan_id"`
	CODEnabled       int     `json:"cod_enabled"`
	CODPercentage    float64 `json:"cod_percentage"`
	AdditionalCharge float64 `json:"additional_charge"`
	FinalPrice       float64 `json:"final_price"`
}

// OrderInfo is the response of GET /aladdin/api/v1/orders/{consignment_id}/info.
type OrderInfo struct {
	ConsignmentID   string `json:"consignment_id"`
	MerchantOrderID string `json:"merchant_order_id"`
	OrderStatus     string `json:"order_status"`
	OrderStatusSlug string `json:"order_status_slug"`
	UpdatedAt       string `json:"updated_at"`
	InvoiceID       string `json:"invoice_id"`
}

// APIError represents an error from the Pathao API.
type APIError struct {
	StatusCode int            `json:"-"`
	Code       int            `json:"code"`
	Message    string         `json:"message"`
	Errors     map[string]any `json:"errors,omitempty"`
	// Body holds a response body that was not a JSON error envelope.
	Body string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("pathao api: status %d", e.StatusCode)
}
