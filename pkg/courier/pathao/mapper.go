package pathao

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tournevent/courier/pkg/courier"
)

var phonePattern = regexp.MustCompile(`^01[0-9]{9}$`)

// MapOrder converts a normalized order request into the Pathao wire schema.
// Location ids are copied as-is; an empty location stays zero.
func MapOrder(req *courier.OrderRequest) CreateOrderRequest {
	storeID, _ := strconv.Atoi(strings.TrimSpace(req.StoreID))
	return CreateOrderRequest{
		StoreID:            storeID,
		MerchantOrderID:    req.MerchantOrderID,
		RecipientName:      strings.TrimSpace(req.Recipient.Name),
		RecipientPhone:     strings.TrimSpace(req.Recipient.Phone),
		RecipientAddress:   strings.TrimSpace(req.Recipient.Address),
		RecipientCity:      req.Location.CityID,
		RecipientZone:      req.Location.ZoneID,
		RecipientArea:      req.Location.AreaID,
		DeliveryType:       deliveryTypeToAPI(req.Delivery),
		ItemType:           itemTypeToAPI(req.Item.Type),
		SpecialInstruction: req.Instructions,
		ItemQuantity:       req.Item.Quantity,
		ItemWeight:         req.Item.WeightKG,
		AmountToCollect:    req.CollectAmount.Round(0).IntPart(),
		ItemDescription:    req.Item.Description,
	}
}

// Validate checks a mapped order before submission.
func Validate(o *CreateOrderRequest) error {
	var errs courier.ValidationErrors
	if o.StoreID <= 0 {
		errs.Add("store_id", "store is required")
	}
	if o.RecipientName == "" {
		errs.Add("recipient_name", "recipient name is required")
	}
	if !phonePattern.MatchString(o.RecipientPhone) {
		errs.Add("recipient_phone", "phone must be 11 digits starting with 01")
	}
	if o.RecipientAddress == "" {
		errs.Add("recipient_address", "recipient address is required")
	}
	if o.RecipientCity <= 0 {
		errs.Add("recipient_city", "city is required")
	}
	if o.RecipientZone <= 0 {
		errs.Add("recipient_zone", "zone is required")
	}
	if o.DeliveryType != DeliveryNormal && o.DeliveryType != DeliveryOnDemand {
		errs.Add("delivery_type", "delivery type must be 48 (normal) or 12 (on demand)")
	}
	if o.ItemType != ItemDocument && o.ItemType != ItemParcel {
		errs.Add("item_type", "item type must be 1 (document) or 2 (parcel)")
	}
	if o.ItemQuantity <= 0 {
		errs.Add("item_quantity", "quantity must be positive")
	}
	if o.ItemWeight <= 0 {
		errs.Add("item_weight", "weight must be positive")
	}
	if o.AmountToCollect < 0 {
		errs.Add("amount_to_collect", "amount to collect cannot be negative")
	}
	return errs.Err()
}

// NormalizeCreateOrder extracts the order data from a create-order response
// body. The standard envelope carries it under "data"; bodies relayed through
// a flattening proxy carry it at the top level. The nested form wins when both
// are present. Either form is accepted when it carries a consignment_id or a
// tracking_code. A body with neither yields empty data and no error; callers
// must check both ids.
func NormalizeCreateOrder(body []byte) (*CreateOrderData, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	var nested CreateOrderData
	if data := bytes.TrimSpace(env.Data); len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &nested); err != nil {
			return nil, fmt.Errorf("failed to decode order data: %w", err)
		}
	}
	if nested.hasID() {
		return &nested, nil
	}

	var flat CreateOrderData
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	if flat.hasID() {
		return &flat, nil
	}
	return &nested, nil
}

func (d *CreateOrderData) hasID() bool {
	return d.ConsignmentID != "" || d.TrackingCode != ""
}

// ============================================================================
// Mapping helpers
// ============================================================================

func deliveryTypeToAPI(d courier.DeliveryType) int {
	if d == courier.DeliveryExpress {
		return DeliveryOnDemand
	}
	return DeliveryNormal
}

func itemTypeToAPI(t courier.ItemType) int {
	if t == courier.ItemDocument {
		return ItemDocument
	}
	return ItemParcel
}

func mapStatus(status string) courier.ShipmentStatus {
	switch strings.ToLower(strings.ReplaceAll(status, " ", "_")) {
	case "pending", "pickup_requested", "assigned_for_pickup", "pickup_failed", "pickup_cancelled":
		return courier.StatusPending
	case "picked", "at_the_sorting_hub", "received_at_last_mile_hub":
		return courier.StatusPickedUp
	case "in_transit", "assigned_for_delivery":
		return courier.StatusInTransit
	case "delivered":
		return courier.StatusDelivered
	case "partial_delivery", "partial_delivered":
		return courier.StatusPartialDelivered
	case "on_hold", "hold", "delivery_failed":
		return courier.StatusOnHold
	case "return", "returned", "paid_return", "exchange":
		return courier.StatusReturned
	case "cancelled", "canceled":
		return courier.StatusCancelled
	default:
		return courier.StatusPending
	}
}
