// Package graphql exposes the courier bridge over a GraphQL endpoint.
package graphql

import (
	"context"
	"time"

	"github.com/tournevent/courier/internal/dispatch"
	"github.com/tournevent/courier/internal/location"
	"github.com/tournevent/courier/internal/orders"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies needed by all resolvers.
type Resolver struct {
	Registry   *courier.Registry
	Orders     *orders.Source
	Dispatcher *dispatch.Dispatcher
	Lookup     *location.Lookup
	Logger     *otelzap.Logger
	Metrics    *telemetry.Metrics

	queries   map[string]fieldFunc
	mutations map[string]fieldFunc
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(
	registry *courier.Registry,
	source *orders.Source,
	dispatcher *dispatch.Dispatcher,
	lookup *location.Lookup,
	logger *otelzap.Logger,
	metrics *telemetry.Metrics,
) *Resolver {
	r := &Resolver{
		Registry:   registry,
		Orders:     source,
		Dispatcher: dispatcher,
		Lookup:     lookup,
		Logger:     logger,
		Metrics:    metrics,
	}

	r.queries = map[string]fieldFunc{
		"health":                  r.health,
		"carriers":                r.carriers,
		"processingOrders":        r.instrument("processing_orders", r.processingOrders),
		"orderOptions":            r.instrument("order_options", r.orderOptions),
		"orderDraft":              r.instrument("order_draft", r.orderDraft),
		"payloadPreview":          r.payloadPreview,
		"pathaoStores":            r.instrument("pathao_stores", r.pathaoStores),
		"pathaoCities":            r.instrument("pathao_cities", r.pathaoCities),
		"pathaoZones":             r.instrument("pathao_zones", r.pathaoZones),
		"pathaoAreas":             r.instrument("pathao_areas", r.pathaoAreas),
		"pathaoLocations":         r.instrument("pathao_locations", r.pathaoLocations),
		"redxAreas":               r.instrument("redx_areas", r.redxAreas),
		"redxPickupStores":        r.instrument("redx_pickup_stores", r.redxPickupStores),
		"steadfastPoliceStations": r.instrument("steadfast_police_stations", r.steadfastPoliceStations),
		"quotes":                  r.instrument("get_quotes", r.quotes),
		"trackOrder":              r.instrument("track_order", r.trackOrder),
		"steadfastStatus":         r.instrument("steadfast_status", r.steadfastStatus),
		"steadfastBalance":        r.instrument("steadfast_balance", r.steadfastBalance),
		"steadfastPayments":       r.instrument("steadfast_payments", r.steadfastPayments),
		"steadfastPayment":        r.instrument("steadfast_payment", r.steadfastPayment),
		"steadfastReturnRequests": r.instrument("steadfast_return_requests", r.steadfastReturnRequests),
		"steadfastReturnRequest":  r.instrument("steadfast_return_request", r.steadfastReturnRequest),
		"unreconciledShipments":   r.instrument("unreconciled_shipments", r.unreconciledShipments),
		"bulkTemplate":            r.bulkTemplate,
	}

	r.mutations = map[string]fieldFunc{
		"createOrder":                  r.createOrder,
		"pathaoBulkOrders":             r.instrument("pathao_bulk_orders", r.pathaoBulkOrders),
		"steadfastBulkOrders":          r.instrument("steadfast_bulk_orders", r.steadfastBulkOrders),
		"steadfastCreateReturnRequest": r.instrument("steadfast_create_return_request", r.steadfastCreateReturnRequest),
		"reconcileShipments":           r.instrument("reconcile_shipments", r.reconcileShipments),
	}

	return r
}

// instrument records request metrics for a field. createOrder is recorded
// by the dispatcher.
func (r *Resolver) instrument(operation string, fn fieldFunc) fieldFunc {
	return func(ctx context.Context, args arguments) (any, error) {
		start := time.Now()
		provider := args.str("provider")
		if provider == "" {
			provider = "all"
		}

		v, err := fn(ctx, args)

		status := "success"
		if err != nil {
			status = "error"
			r.Metrics.RecordError(provider, errorCode(err))
			r.Logger.Ctx(ctx).Warn("GraphQL field failed",
				zap.String("operation", operation),
				zap.String("provider", provider),
				zap.Error(err),
			)
		}
		r.Metrics.RecordRequest(operation, provider, status, time.Since(start).Seconds())
		return v, err
	}
}
