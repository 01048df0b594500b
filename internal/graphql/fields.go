package graphql

import (
	"context"
	"errors"
	"fmt"

	"github.com/tournevent/courier/internal/bulk"
	"github.com/tournevent/courier/internal/dispatch"
	"github.com/tournevent/courier/internal/journal"
	"github.com/tournevent/courier/internal/location"
	"github.com/tournevent/courier/internal/orders"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/pathao"
	"github.com/tournevent/courier/pkg/courier/redx"
	"github.com/tournevent/courier/pkg/courier/steadfast"
)

// ============================================================================
// Service
// ============================================================================

type healthStatus struct {
	Status   string   `json:"status"`
	Carriers []string `json:"carriers"`
}

func (r *Resolver) health(_ context.Context, _ arguments) (any, error) {
	return healthStatus{Status: "ok", Carriers: r.Registry.Names()}, nil
}

func (r *Resolver) carriers(_ context.Context, _ arguments) (any, error) {
	return r.Registry.Names(), nil
}

// ============================================================================
// Orders
// ============================================================================

func (r *Resolver) processingOrders(ctx context.Context, args arguments) (any, error) {
	companyID, err := args.requiredString("companyId")
	if err != nil {
		return nil, err
	}
	return r.Orders.ProcessingOrders(ctx, companyID), nil
}

func (r *Resolver) orderOptions(ctx context.Context, args arguments) (any, error) {
	companyID, err := args.requiredString("companyId")
	if err != nil {
		return nil, err
	}
	return r.Orders.Options(ctx, companyID), nil
}

type orderDraft struct {
	Order   *orders.Order        `json:"order"`
	Request courier.OrderRequest `json:"request"`
	Payload any                  `json:"payload,omitempty"`
}

// orderDraft pre-fills a booking form from a processing order. With a
// provider it also returns the provider's payload for the draft.
func (r *Resolver) orderDraft(ctx context.Context, args arguments) (any, error) {
	companyID, err := args.requiredString("companyId")
	if err != nil {
		return nil, err
	}
	orderID, err := args.requiredString("orderId")
	if err != nil {
		return nil, err
	}

	o, ok := r.Orders.Find(ctx, companyID, orderID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", orders.ErrOrderNotFound, orderID)
	}

	draft := orderDraft{Order: o, Request: dispatch.DraftFromOrder(*o)}
	if provider := args.str("provider"); provider != "" {
		c, err := r.Registry.Get(provider)
		if err != nil {
			return nil, err
		}
		draft.Payload = c.Payload(&draft.Request)
	}
	return draft, nil
}

func (r *Resolver) payloadPreview(_ context.Context, args arguments) (any, error) {
	provider, err := args.requiredString("provider")
	if err != nil {
		return nil, err
	}
	var req courier.OrderRequest
	if err := args.decode("input", &req); err != nil {
		return nil, err
	}
	c, err := r.Registry.Get(provider)
	if err != nil {
		return nil, err
	}
	return c.Payload(&req), nil
}

func (r *Resolver) createOrder(ctx context.Context, args arguments) (any, error) {
	provider, err := args.requiredString("provider")
	if err != nil {
		return nil, err
	}
	var req courier.OrderRequest
	if err := args.decode("input", &req); err != nil {
		return nil, err
	}
	return r.Dispatcher.Dispatch(ctx, args.str("companyId"), provider, &req)
}

func (r *Resolver) unreconciledShipments(ctx context.Context, args arguments) (any, error) {
	companyID, err := args.requiredString("companyId")
	if err != nil {
		return nil, err
	}
	entries, err := r.Dispatcher.Unreconciled(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return entries, nil
}

func (r *Resolver) reconcileShipments(ctx context.Context, args arguments) (any, error) {
	companyID, err := args.requiredString("companyId")
	if err != nil {
		return nil, err
	}
	return r.Dispatcher.Reconcile(ctx, companyID)
}

// ============================================================================
// Locations
// ============================================================================

func (r *Resolver) pathaoStores(ctx context.Context, _ arguments) (any, error) {
	return r.Lookup.PathaoStores(ctx)
}

func (r *Resolver) pathaoCities(ctx context.Context, _ arguments) (any, error) {
	return r.Lookup.PathaoCities(ctx)
}

func (r *Resolver) pathaoZones(ctx context.Context, args arguments) (any, error) {
	cityID, err := args.integer("cityId")
	if err != nil {
		return nil, err
	}
	zones, err := r.Lookup.PathaoZones(ctx, cityID)
	if zones == nil && err == nil {
		zones = []pathao.Zone{}
	}
	return zones, err
}

func (r *Resolver) pathaoAreas(ctx context.Context, args arguments) (any, error) {
	zoneID, err := args.integer("zoneId")
	if err != nil {
		return nil, err
	}
	areas, err := r.Lookup.PathaoAreas(ctx, zoneID)
	if areas == nil && err == nil {
		areas = []pathao.Area{}
	}
	return areas, err
}

// locationLevel is one level of a location cascade as served to clients.
type locationLevel struct {
	Name     string            `json:"name"`
	State    string            `json:"state"`
	Options  []location.Option `json:"options"`
	Selected int               `json:"selected,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (r *Resolver) pathaoLocations(ctx context.Context, args arguments) (any, error) {
	cityID, err := args.integer("cityId")
	if err != nil {
		return nil, err
	}
	zoneID, err := args.integer("zoneId")
	if err != nil {
		return nil, err
	}

	levels, err := r.Lookup.PathaoLocations(ctx, cityID, zoneID)
	if errors.Is(err, location.ErrUnknownOption) {
		return nil, invalidArgument("location", err.Error())
	}
	if err != nil {
		return nil, err
	}

	out := make([]locationLevel, len(levels))
	for i, l := range levels {
		out[i] = locationLevel{
			Name:     l.Name,
			State:    l.State.String(),
			Options:  l.Options,
			Selected: l.Selected,
		}
		if out[i].Options == nil {
			out[i].Options = []location.Option{}
		}
		if l.Err != nil {
			out[i].Error = userMessage(l.Err)
		}
	}
	return out, nil
}

func (r *Resolver) redxAreas(ctx context.Context, args arguments) (any, error) {
	mode, err := parseAreaMode(args.str("mode"))
	if err != nil {
		return nil, err
	}
	areas, err := r.Lookup.RedXAreas(ctx, redx.AreaFilter{Mode: redx.AreaMode(mode), Value: args.str("value")})
	if areas == nil && err == nil {
		areas = []redx.Area{}
	}
	return areas, err
}

func (r *Resolver) redxPickupStores(ctx context.Context, _ arguments) (any, error) {
	return r.Lookup.RedXPickupStores(ctx)
}

func (r *Resolver) steadfastPoliceStations(ctx context.Context, _ arguments) (any, error) {
	return r.Lookup.SteadfastPoliceStations(ctx)
}

// ============================================================================
// Quotes and tracking
// ============================================================================

type quoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type quoteResult struct {
	Quotes []*courier.QuoteResponse `json:"quotes"`
	Errors []quoteError             `json:"errors"`
}

// quotes fans out to the requested providers. Per-provider failures are
// returned next to the quotes that succeeded.
func (r *Resolver) quotes(ctx context.Context, args arguments) (any, error) {
	var req courier.QuoteRequest
	if err := args.decode("input", &req); err != nil {
		return nil, err
	}

	quotes, errs := r.Registry.GetQuotesFrom(ctx, &req, args.stringList("carriers"))
	out := quoteResult{Quotes: quotes, Errors: make([]quoteError, 0, len(errs))}
	if out.Quotes == nil {
		out.Quotes = []*courier.QuoteResponse{}
	}
	for _, err := range errs {
		out.Errors = append(out.Errors, quoteError{Code: errorCode(err), Message: userMessage(err)})
	}
	return out, nil
}

func (r *Resolver) trackOrder(ctx context.Context, args arguments) (any, error) {
	provider, err := args.requiredString("provider")
	if err != nil {
		return nil, err
	}
	trackingID, err := args.requiredString("trackingId")
	if err != nil {
		return nil, err
	}
	c, err := r.Registry.Get(provider)
	if err != nil {
		return nil, err
	}
	return c.TrackOrder(ctx, trackingID)
}

// ============================================================================
// Steadfast account
// ============================================================================

func (r *Resolver) steadfast() (*steadfast.Client, error) {
	c, err := r.Registry.Get("steadfast")
	if err != nil {
		return nil, err
	}
	sc, ok := c.(*steadfast.Client)
	if !ok {
		return nil, fmt.Errorf("%w: steadfast", courier.ErrCarrierNotFound)
	}
	return sc, nil
}

func (r *Resolver) pathao() (*pathao.Client, error) {
	c, err := r.Registry.Get("pathao")
	if err != nil {
		return nil, err
	}
	pc, ok := c.(*pathao.Client)
	if !ok {
		return nil, fmt.Errorf("%w: pathao", courier.ErrCarrierNotFound)
	}
	return pc, nil
}

func (r *Resolver) steadfastStatus(ctx context.Context, args arguments) (any, error) {
	sc, err := r.steadfast()
	if err != nil {
		return nil, err
	}
	kind := args.str("kind")
	if kind == "" {
		kind = string(steadfast.LookupTrackingCode)
	}
	return sc.Status(ctx, steadfast.LookupKind(kind), args.str("id"))
}

type balance struct {
	Balance string `json:"balance"`
}

func (r *Resolver) steadfastBalance(ctx context.Context, _ arguments) (any, error) {
	sc, err := r.steadfast()
	if err != nil {
		return nil, err
	}
	b, err := sc.Balance(ctx)
	if err != nil {
		return nil, err
	}
	return balance{Balance: b.StringFixed(2)}, nil
}

func (r *Resolver) steadfastPayments(ctx context.Context, _ arguments) (any, error) {
	sc, err := r.steadfast()
	if err != nil {
		return nil, err
	}
	return sc.Payments(ctx)
}

func (r *Resolver) steadfastPayment(ctx context.Context, args arguments) (any, error) {
	sc, err := r.steadfast()
	if err != nil {
		return nil, err
	}
	id, err := args.integer("id")
	if err != nil {
		return nil, err
	}
	return sc.Payment(ctx, id)
}

func (r *Resolver) steadfastReturnRequests(ctx context.Context, _ arguments) (any, error) {
	sc, err := r.steadfast()
	if err != nil {
		return nil, err
	}
	return sc.ReturnRequests(ctx)
}

func (r *Resolver) steadfastReturnRequest(ctx context.Context, args arguments) (any, error) {
	sc, err := r.steadfast()
	if err != nil {
		return nil, err
	}
	id, err := args.integer("id")
	if err != nil {
		return nil, err
	}
	return sc.ReturnRequest(ctx, id)
}

func (r *Resolver) steadfastCreateReturnRequest(ctx context.Context, args arguments) (any, error) {
	sc, err := r.steadfast()
	if err != nil {
		return nil, err
	}
	var in steadfast.ReturnRequestInput
	if err := args.decode("input", &in); err != nil {
		return nil, err
	}
	return sc.CreateReturnRequest(ctx, &in)
}

// ============================================================================
// Bulk entry
// ============================================================================

type template struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

func (r *Resolver) bulkTemplate(_ context.Context, args arguments) (any, error) {
	provider, err := args.requiredString("provider")
	if err != nil {
		return nil, err
	}
	formatName := args.str("format")
	if formatName == "" {
		formatName = string(bulk.FormatCSV)
	}
	format, err := bulk.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	data, err := bulk.Template(provider, format)
	if err != nil {
		return nil, err
	}
	return template{
		Filename:    provider + "-bulk-template." + string(format),
		ContentType: format.ContentType(),
		Content:     string(data),
	}, nil
}

// steadfastBulkOrders accepts the orders as a JSON array or a CSV string.
func (r *Resolver) steadfastBulkOrders(ctx context.Context, args arguments) (any, error) {
	sc, err := r.steadfast()
	if err != nil {
		return nil, err
	}
	data, err := args.raw("orders")
	if err != nil {
		return nil, err
	}
	list, err := bulk.ParseSteadfast(data)
	if err != nil {
		return nil, err
	}
	return sc.CreateBulkOrders(ctx, list)
}

func (r *Resolver) pathaoBulkOrders(ctx context.Context, args arguments) (any, error) {
	pc, err := r.pathao()
	if err != nil {
		return nil, err
	}
	data, err := args.raw("orders")
	if err != nil {
		return nil, err
	}
	reqs, err := bulk.ParsePathao(data)
	if err != nil {
		return nil, err
	}
	return pc.CreateBulkOrders(ctx, reqs)
}
