// Package dispatch books back-office orders with a courier and writes the
// resulting consignment back onto the order.
package dispatch

import (
	"strings"

	"github.com/tournevent/courier/internal/orders"
	"github.com/tournevent/courier/pkg/courier"
)

// DefaultWeightKG is the parcel weight pre-filled for a new draft.
const DefaultWeightKG = 0.5

// DraftFromOrder pre-fills a courier request from a back-office order.
// Location fields stay empty: the order carries no courier location ids,
// so the operator picks them.
func DraftFromOrder(o orders.Order) courier.OrderRequest {
	return courier.OrderRequest{
		OrderID:         o.ID,
		MerchantOrderID: o.ID,
		Recipient: courier.Recipient{
			Name:    strings.TrimSpace(o.Customer.Name),
			Phone:   strings.TrimSpace(o.Customer.Phone),
			Email:   strings.TrimSpace(o.Customer.Email),
			Address: o.DeliveryAddress(),
		},
		Item: courier.Item{
			Type:        courier.ItemParcel,
			Quantity:    itemQuantity(o.Items),
			WeightKG:    DefaultWeightKG,
			Description: describeItems(o.Items),
			Value:       o.TotalAmount,
		},
		CollectAmount: o.TotalAmount,
		Delivery:      courier.DeliveryStandard,
	}
}

func describeItems(items []orders.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if d := strings.TrimSpace(it.Description); d != "" {
			name += ": " + d
		}
		if name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}

// itemQuantity sums line quantities, counting every line at least once.
func itemQuantity(items []orders.LineItem) int {
	total := 0
	for _, it := range items {
		total += max(it.Quantity, 1)
	}
	return max(total, 1)
}
