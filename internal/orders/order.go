// Package orders reads back-office orders and writes shipment details back.
package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Order statuses the courier bridge cares about.
const (
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
)

// Customer is the buyer recorded on an order.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// LineItem is one product line of an order.
type LineItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Order is a back-office order as returned by the order API.
type Order struct {
	ID                 string          `json:"id"`
	Status             string          `json:"status"`
	Customer           Customer        `json:"customer"`
	BillingAddress     string          `json:"billingAddress,omitempty"`
	ShippingAddress    string          `json:"shippingAddress,omitempty"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	Items              []LineItem      `json:"items"`
	ShippingProvider   string          `json:"shippingProvider,omitempty"`
	ShippingTrackingID string          `json:"shippingTrackingId,omitempty"`
}

// IsProcessing reports whether the order is waiting to be shipped.
func (o *Order) IsProcessing() bool {
	return strings.EqualFold(strings.TrimSpace(o.Status), StatusProcessing)
}

// DeliveryAddress returns the shipping address, falling back to billing.
func (o *Order) DeliveryAddress() string {
	if a := strings.TrimSpace(o.ShippingAddress); a != "" {
		return a
	}
	return strings.TrimSpace(o.BillingAddress)
}

// Option is an order presented for selection.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Option returns the selection entry for the order.
func (o *Order) Option() Option {
	return Option{
		Value: o.ID,
		Label: fmt.Sprintf("#%s - %s - %s", o.ID, o.Customer.Name, o.TotalAmount.StringFixedBank(2)),
	}
}

// ShipmentUpdate is the write-back issued once a courier consignment exists.
type ShipmentUpdate struct {
	OrderID    string `json:"-"`
	TrackingID string `json:"shippingTrackingId"`
	Provider   string `json:"shippingProvider"`
	Status     string `json:"status"`
	City       string `json:"city,omitempty"`
}
