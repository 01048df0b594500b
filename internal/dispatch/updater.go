package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/tournevent/courier/internal/orders"
)

// Shipper writes a shipment update onto an order.
type Shipper interface {
	Ship(ctx context.Context, u orders.ShipmentUpdate) error
}

// Updater marks orders as shipped.
type Updater struct {
	shipper Shipper
}

// NewUpdater creates an Updater.
func NewUpdater(shipper Shipper) *Updater {
	return &Updater{shipper: shipper}
}

// MarkShipped sets the order status to "shipped" with the courier and tracking id.
func (u *Updater) MarkShipped(ctx context.Context, upd orders.ShipmentUpdate) error {
	upd.OrderID = strings.TrimSpace(upd.OrderID)
	upd.TrackingID = strings.TrimSpace(upd.TrackingID)
	if upd.OrderID == "" {
		return errors.New("order id is required")
	}
	if upd.TrackingID == "" {
		return errors.New("tracking id is required")
	}
	if upd.Provider == "" {
		return errors.New("provider is required")
	}
	upd.Status = orders.StatusShipped
	return u.shipper.Ship(ctx, upd)
}
