package redx

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tournevent/courier/pkg/courier"
)

// AreaMode selects which area list backs delivery area resolution.
type AreaMode string

const (
	AreaModeAll      AreaMode = "all"
	AreaModePostCode AreaMode = "postcode"
	AreaModeDistrict AreaMode = "district"
)

// AreaFilter is an area list selection.
type AreaFilter struct {
	Mode  AreaMode
	Value string
}

// Query returns the API query for the filter. Unknown modes list all areas.
func (f AreaFilter) Query() AreaQuery {
	switch f.Mode {
	case AreaModePostCode:
		return AreaQuery{PostCode: strings.TrimSpace(f.Value)}
	case AreaModeDistrict:
		return AreaQuery{DistrictName: strings.TrimSpace(f.Value)}
	default:
		return AreaQuery{}
	}
}

// FilterFor picks the narrowest area list a location allows.
func FilterFor(loc courier.Location) AreaFilter {
	switch {
	case loc.PostCode != "":
		return AreaFilter{Mode: AreaModePostCode, Value: loc.PostCode}
	case loc.District != "":
		return AreaFilter{Mode: AreaModeDistrict, Value: loc.District}
	default:
		return AreaFilter{Mode: AreaModeAll}
	}
}

// ResolveArea returns the first area whose name equals name exactly.
// Area names are not unique across districts; later matches are ignored.
func ResolveArea(areas []Area, name string) (Area, bool) {
	for _, a := range areas {
		if a.Name == name {
			return a, true
		}
	}
	return Area{}, false
}

// MapParcel converts a normalized order request into the RedX wire schema.
// The delivery area id is copied as-is; CreateOrder resolves it by name
// when it is zero.
func MapParcel(req *courier.OrderRequest) ParcelRequest {
	storeID, _ := strconv.Atoi(strings.TrimSpace(req.StoreID))
	return ParcelRequest{
		CustomerName:         strings.TrimSpace(req.Recipient.Name),
		CustomerPhone:        strings.TrimSpace(req.Recipient.Phone),
		DeliveryArea:         strings.TrimSpace(req.Location.AreaName),
		DeliveryAreaID:       req.Location.AreaID,
		CustomerAddress:      strings.TrimSpace(req.Recipient.Address),
		MerchantInvoiceID:    req.MerchantOrderID,
		CashCollectionAmount: req.CollectAmount.String(),
		ParcelWeight:         int(math.Round(req.Item.WeightKG * 1000)),
		Instruction:          req.Instructions,
		Value:                req.Item.Value.String(),
		PickupStoreID:        storeID,
	}
}

// Validate checks a mapped parcel before submission. The area id is not
// checked here; it may still be resolved from the area name.
func Validate(p *ParcelRequest) error {
	var errs courier.ValidationErrors
	if p.CustomerName == "" {
		errs.Add("customer_name", "customer name is required")
	}
	if p.CustomerPhone == "" {
		errs.Add("customer_phone", "customer phone is required")
	}
	if p.CustomerAddress == "" {
		errs.Add("customer_address", "customer address is required")
	}
	if p.DeliveryArea == "" {
		errs.Add("delivery_area", "delivery area is required")
	}
	if p.ParcelWeight <= 0 {
		errs.Add("parcel_weight", "weight must be positive")
	}
	if !nonNegative(p.CashCollectionAmount) {
		errs.Add("cash_collection_amount", "cash collection amount cannot be negative")
	}
	if !nonNegative(p.Value) {
		errs.Add("value", "value cannot be negative")
	}
	return errs.Err()
}

func nonNegative(s string) bool {
	d, err := decimal.NewFromString(s)
	return err == nil && !d.IsNegative()
}

func mapStatus(status string) courier.ShipmentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pickup-pending", "pickup-in-progress", "ready-for-pickup":
		return courier.StatusPending
	case "picked-up", "ready-for-delivery", "at-hub":
		return courier.StatusPickedUp
	case "in-transit", "delivery-in-progress", "agent-area-change":
		return courier.StatusInTransit
	case "delivered", "delivery-payment-collected":
		return courier.StatusDelivered
	case "partial-delivered", "partially-delivered":
		return courier.StatusPartialDelivered
	case "agent-hold", "hold", "on-hold":
		return courier.StatusOnHold
	case "agent-returning", "returned", "return-in-progress":
		return courier.StatusReturned
	case "cancelled", "canceled":
		return courier.StatusCancelled
	default:
		return courier.StatusPending
	}
}
