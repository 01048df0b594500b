package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/courier/internal/journal"
	"github.com/tournevent/courier/internal/orders"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// WarnStatusNotUpdated is reported when a consignment was created but the
// order write-back failed.
const WarnStatusNotUpdated = "order created but status not updated"

// WarnNoTrackingID is reported when the courier accepted an order for a
// back-office order but returned no tracking id to write back.
const WarnNoTrackingID = "order created but no tracking id returned"

// Result is the outcome of booking one order.
type Result struct {
	Response      *courier.OrderResponse `json:"response"`
	TrackingID    string                 `json:"trackingId,omitempty"`
	StatusUpdated bool                   `json:"statusUpdated"`
	Warning       string                 `json:"warning,omitempty"`
	JournalID     string                 `json:"journalId"`
}

// Dispatcher submits orders to couriers and writes the result back.
type Dispatcher struct {
	registry *courier.Registry
	updater  *Updater
	journal  journal.Journal
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// NewDispatcher creates a Dispatcher. A nil journal keeps nothing.
func NewDispatcher(registry *courier.Registry, updater *Updater, j journal.Journal, logger *otelzap.Logger, metrics *telemetry.Metrics) *Dispatcher {
	if j == nil {
		j = journal.Nop{}
	}
	return &Dispatcher{
		registry: registry,
		updater:  updater,
		journal:  j,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch books req with provider. Once the courier returns a tracking id
// and the request names an order, the order is marked shipped. A missing
// tracking id or a failed write-back does not fail the dispatch: the
// consignment already exists, so the result carries a warning instead.
func (d *Dispatcher) Dispatch(ctx context.Context, companyID, provider string, req *courier.OrderRequest) (*Result, error) {
	start := time.Now()
	entry := journal.Entry{
		ID:              uuid.NewString(),
		CompanyID:       companyID,
		OrderID:         req.OrderID,
		Provider:        provider,
		MerchantOrderID: req.MerchantOrderID,
		City:            req.Location.District,
	}

	c, err := d.registry.Get(provider)
	if err != nil {
		d.metrics.RecordRequest("create_order", provider, "error", time.Since(start).Seconds())
		d.metrics.RecordError(provider, courier.ErrorCode(err))
		return nil, err
	}

	resp, err := c.CreateOrder(ctx, req)
	if err != nil {
		d.metrics.RecordRequest("create_order", provider, "error", time.Since(start).Seconds())
		d.metrics.RecordError(provider, courier.ErrorCode(err))
		entry.Outcome = journal.OutcomeFailed
		entry.Error = err.Error()
		d.record(ctx, entry)
		return nil, err
	}

	result := &Result{Response: resp, TrackingID: resp.TrackingID(), JournalID: entry.ID}
	entry.TrackingID = result.TrackingID
	entry.Outcome = journal.OutcomeCreated

	switch {
	case req.OrderID == "":
		// no back-office order to write back to
	case result.TrackingID == "":
		d.logger.Ctx(ctx).Warn(WarnNoTrackingID,
			zap.String("provider", provider),
			zap.String("order_id", req.OrderID),
		)
		d.metrics.RecordStatusUpdateFailure(provider)
		result.Warning = WarnNoTrackingID
		entry.Outcome = journal.OutcomeUntracked
		entry.Error = WarnNoTrackingID
	default:
		err := d.updater.MarkShipped(ctx, orders.ShipmentUpdate{
			OrderID:    req.OrderID,
			TrackingID: result.TrackingID,
			Provider:   provider,
			City:       req.Location.District,
		})
		if err != nil {
			d.logger.Ctx(ctx).Warn(WarnStatusNotUpdated,
				zap.String("provider", provider),
				zap.String("order_id", req.OrderID),
				zap.String("tracking_id", result.TrackingID),
				zap.Error(err),
			)
			d.metrics.RecordStatusUpdateFailure(provider)
			result.Warning = WarnStatusNotUpdated
			entry.Outcome = journal.OutcomePartial
			entry.Error = err.Error()
		} else {
			result.StatusUpdated = true
			entry.StatusUpdated = true
		}
	}

	d.record(ctx, entry)
	d.metrics.RecordRequest("create_order", provider, "success", time.Since(start).Seconds())

	d.logger.Ctx(ctx).Info("Consignment created",
		zap.String("provider", provider),
		zap.String("order_id", req.OrderID),
		zap.String("tracking_id", result.TrackingID),
		zap.Bool("status_updated", result.StatusUpdated),
	)
	return result, nil
}

// record journals an outcome. The courier call has already happened, so a
// journal failure is logged and not returned.
func (d *Dispatcher) record(ctx context.Context, e journal.Entry) {
	if err := d.journal.Record(ctx, e); err != nil {
		d.logger.Ctx(ctx).Error("Failed to journal shipment",
			zap.String("journal_id", e.ID),
			zap.String("provider", e.Provider),
			zap.Error(err),
		)
	}
}

// Unreconciled lists consignments whose order write-back failed or could not
// be attempted.
func (d *Dispatcher) Unreconciled(ctx context.Context, companyID string) ([]journal.Entry, error) {
	return d.journal.ListUnreconciled(ctx, companyID)
}

// ReconcileFailure is a write-back that failed again.
type ReconcileFailure struct {
	EntryID string `json:"entryId"`
	OrderID string `json:"orderId"`
	Error   string `json:"error"`
}

// ReconcileReport summarizes a reconcile run. Skipped entries have no
// tracking id and must be shipped by hand.
type ReconcileReport struct {
	Reconciled int                `json:"reconciled"`
	Failed     []ReconcileFailure `json:"failed,omitempty"`
	Skipped    []ReconcileFailure `json:"skipped,omitempty"`
}

// Reconcile retries the status write-back for every unreconciled entry of
// the company. It runs only on operator request.
func (d *Dispatcher) Reconcile(ctx context.Context, companyID string) (*ReconcileReport, error) {
	entries, err := d.journal.ListUnreconciled(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing unreconciled shipments: %w", err)
	}

	report := &ReconcileReport{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if e.TrackingID == "" {
			report.Skipped = append(report.Skipped, ReconcileFailure{EntryID: e.ID, OrderID: e.OrderID, Error: WarnNoTrackingID})
			continue
		}

		err := d.updater.MarkShipped(ctx, orders.ShipmentUpdate{
			OrderID:    e.OrderID,
			TrackingID: e.TrackingID,
			Provider:   e.Provider,
			City:       e.City,
		})
		if err == nil {
			err = d.journal.MarkReconciled(ctx, e.ID)
		}
		if err != nil {
			report.Failed = append(report.Failed, ReconcileFailure{EntryID: e.ID, OrderID: e.OrderID, Error: err.Error()})
			continue
		}
		report.Reconciled++
	}

	d.logger.Ctx(ctx).Info("Reconcile finished",
		zap.String("company_id", companyID),
		zap.Int("reconciled", report.Reconciled),
		zap.Int("failed", len(report.Failed)),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}
