package courier

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShipmentStatus represents the normalized status of a consignment.
type ShipmentStatus string

const (
	StatusPending          ShipmentStatus = "pending"
	StatusPickedUp         ShipmentStatus = "picked_up"
	StatusInTransit        ShipmentStatus = "in_transit"
	StatusDelivered        ShipmentStatus = "delivered"
	StatusPartialDelivered ShipmentStatus = "partial_delivered"
	StatusOnHold           ShipmentStatus = "on_hold"
	StatusReturned         ShipmentStatus = "returned"
	StatusCancelled        ShipmentStatus = "cancelled"
	StatusException        ShipmentStatus = "exception"
)

// DeliveryType represents the delivery speed requested from the provider.
type DeliveryType string

const (
	DeliveryStandard DeliveryType = "standard"
	DeliveryExpress  DeliveryType = "express"
)

// ItemType represents what is being shipped.
type ItemType string

const (
	ItemParcel   ItemType = "parcel"
	ItemDocument ItemType = "document"
)

// Recipient holds the consignee contact details.
type Recipient struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	AltPhone string `json:"altPhone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address"`
}

// Location identifies the delivery location in the provider's own hierarchy.
// Pathao uses numeric city/zone/area ids, RedX an area name with id,
// Steadfast needs none of them.
type Location struct {
	CityID   int    `json:"cityId,omitempty"`
	ZoneID   int    `json:"zoneId,omitempty"`
	AreaID   int    `json:"areaId,omitempty"`
	AreaName string `json:"areaName,omitempty"`
	PostCode string `json:"postCode,omitempty"`
	District string `json:"district,omitempty"`
}

// IsEmpty reports whether no location field has been chosen.
func (l Location) IsEmpty() bool {
	return l == Location{}
}

// Item describes the parcel contents.
type Item struct {
	Type        ItemType        `json:"type,omitempty"`
	Quantity    int             `json:"quantity"`
	WeightKG    float64         `json:"weightKg"`
	Description string          `json:"description,omitempty"`
	Value       decimal.Decimal `json:"value"`
}

// ============================================================================
// Request/Response Types
// ============================================================================

// OrderRequest is the provider-neutral request for booking a consignment.
type OrderRequest struct {
	// OrderID is the originating back-office order. Empty for ad hoc bookings,
	// in which case no status write-back happens.
	OrderID         string          `json:"orderId,omitempty"`
	MerchantOrderID string          `json:"merchantOrderId"`
	StoreID         string          `json:"storeId,omitempty"`
	Recipient       Recipient       `json:"recipient"`
	Location        Location        `json:"location"`
	Item            Item            `json:"item"`
	CollectAmount   decimal.Decimal `json:"collectAmount"`
	Delivery        DeliveryType    `json:"delivery,omitempty"`
	Instructions    string          `json:"instructions,omitempty"`
}

// OrderResponse is the normalized response from booking a consignment.
type OrderResponse struct {
	Carrier         string          `json:"carrier"`
	ConsignmentID   string          `json:"consignmentId,omitempty"`
	TrackingCode    string          `json:"trackingCode,omitempty"`
	MerchantOrderID string          `json:"merchantOrderId,omitempty"`
	Status          ShipmentStatus  `json:"status"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Message         string          `json:"message,omitempty"`
}

// TrackingID returns the identifier the provider uses for public tracking.
func (r *OrderResponse) TrackingID() string {
	if r == nil {
		return ""
	}
	if r.TrackingCode != "" {
		return r.TrackingCode
	}
	return r.ConsignmentID
}

// TrackingEvent represents a tracking event.
type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// TrackingResponse is the normalized delivery status of a consignment.
type TrackingResponse struct {
	Carrier    string          `json:"carrier"`
	TrackingID string          `json:"trackingId"`
	Status     ShipmentStatus  `json:"status"`
	RawStatus  string          `json:"rawStatus"`
	UpdatedAt  *time.Time      `json:"updatedAt,omitempty"`
	Events     []TrackingEvent `json:"events,omitempty"`
}

// QuoteRequest is the request for a delivery charge estimate.
type QuoteRequest struct {
	StoreID       string          `json:"storeId,omitempty"`
	PickupAreaID  int             `json:"pickupAreaId,omitempty"`
	Location      Location        `json:"location"`
	Item          Item            `json:"item"`
	CollectAmount decimal.Decimal `json:"collectAmount"`
	Delivery      DeliveryType    `json:"delivery,omitempty"`
}

// QuoteResponse is the delivery charge estimate from one provider.
type QuoteResponse struct {
	Carrier     string          `json:"carrier"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	CODCharge   decimal.Decimal `json:"codCharge"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}
