package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/dispatch"
	"github.com/tournevent/courier/internal/journal"
	"github.com/tournevent/courier/internal/orders"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/mock"
	"github.com/tournevent/courier/pkg/courier/pathao"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type shipperStub struct {
	mu     sync.Mutex
	calls  []orders.ShipmentUpdate
	OnShip func(u orders.ShipmentUpdate) error
}

func (s *shipperStub) Ship(ctx context.Context, u orders.ShipmentUpdate) error {
	s.mu.Lock()
	s.calls = append(s.calls, u)
	s.mu.Unlock()
	if s.OnShip != nil {
		return s.OnShip(u)
	}
	return nil
}

type memJournal struct {
	mu         sync.Mutex
	entries    []journal.Entry
	reconciled map[string]bool
	RecordErr  error
}

func (j *memJournal) Record(ctx context.Context, e journal.Entry) error {
	if j.RecordErr != nil {
		return j.RecordErr
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) ListUnreconciled(ctx context.Context, companyID string) ([]journal.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []journal.Entry
	for _, e := range j.entries {
		pending := e.Outcome == journal.OutcomePartial || e.Outcome == journal.OutcomeUntracked
		if e.CompanyID == companyID && pending && !j.reconciled[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (j *memJournal) MarkReconciled(ctx context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.reconciled == nil {
		j.reconciled = make(map[string]bool)
	}
	j.reconciled[id] = true
	return nil
}

type fixture struct {
	dispatcher *dispatch.Dispatcher
	courier    *mock.Client
	shipper    *shipperStub
	journal    *memJournal
	metrics    *telemetry.Metrics
}

func newFixture() *fixture {
	registry := courier.NewRegistry()
	c := mock.New("pathao", 60)
	registry.Register(c)

	f := &fixture{
		courier: c,
		shipper: &shipperStub{},
		journal: &memJournal{},
		metrics: telemetry.NewMetrics(prometheus.NewRegistry()),
	}
	f.dispatcher = dispatch.NewDispatcher(registry, dispatch.NewUpdater(f.shipper), f.journal, otelzap.New(zap.NewNop()), f.metrics)
	return f
}

func sampleOrder() orders.Order {
	return orders.Order{
		ID:             "1024",
		Status:         "processing",
		Customer:       orders.Customer{Name: "Rahim Uddin", Phone: "01712345678", Email: "rahim@example.com"},
		BillingAddress: "House 12, Road 5, Dhanmondi",
		TotalAmount:    decimal.NewFromInt(1500),
		Items:          []orders.LineItem{{Name: "T-Shirt", Quantity: 1, Price: decimal.NewFromInt(1500)}},
	}
}

func TestDraftFromOrder_PrefillsPathaoForm(t *testing.T) {
	req := dispatch.DraftFromOrder(sampleOrder())
	payload := pathao.MapOrder(&req)

	assert.Equal(t, int64(1500), payload.AmountToCollect)
	assert.Equal(t, "T-Shirt", payload.ItemDescription)
	assert.Equal(t, 1, payload.ItemQuantity)
	assert.Equal(t, "1024", payload.MerchantOrderID)
	assert.Equal(t, "Rahim Uddin", payload.RecipientName)
	assert.Equal(t, "House 12, Road 5, Dhanmondi", payload.RecipientAddress)
	assert.Zero(t, payload.RecipientCity)
	assert.Zero(t, payload.RecipientZone)
	assert.Zero(t, payload.RecipientArea)
	assert.True(t, req.Location.IsEmpty())
}

func TestDraftFromOrder_ItemsAndQuantity(t *testing.T) {
	o := sampleOrder()
	o.ShippingAddress = "Warehouse 3, Tejgaon"
	o.Items = []orders.LineItem{
		{Name: "T-Shirt", Description: "Blue, XL", Quantity: 2},
		{Name: "Cap", Quantity: 0},
		{Name: " "},
	}

	req := dispatch.DraftFromOrder(o)

	assert.Equal(t, "T-Shirt: Blue, XL, Cap", req.Item.Description)
	assert.Equal(t, 4, req.Item.Quantity)
	assert.Equal(t, "Warehouse 3, Tejgaon", req.Recipient.Address)
	assert.Equal(t, dispatch.DefaultWeightKG, req.Item.WeightKG)
}

func TestDraftFromOrder_NoItems(t *testing.T) {
	o := sampleOrder()
	o.Items = nil

	req := dispatch.DraftFromOrder(o)

	assert.Equal(t, 1, req.Item.Quantity)
	assert.Empty(t, req.Item.Description)
}

func TestUpdater_MarkShipped(t *testing.T) {
	shipper := &shipperStub{}
	u := dispatch.NewUpdater(shipper)

	err := u.MarkShipped(context.Background(), orders.ShipmentUpdate{OrderID: "1024", TrackingID: " DL1 ", Provider: "pathao"})

	require.NoError(t, err)
	require.Len(t, shipper.calls, 1)
	assert.Equal(t, orders.ShipmentUpdate{OrderID: "1024", TrackingID: "DL1", Provider: "pathao", Status: "shipped"}, shipper.calls[0])
}

func TestUpdater_RejectsEmptyIDs(t *testing.T) {
	shipper := &shipperStub{}
	u := dispatch.NewUpdater(shipper)
	ctx := context.Background()

	assert.Error(t, u.MarkShipped(ctx, orders.ShipmentUpdate{TrackingID: "DL1", Provider: "pathao"}))
	assert.Error(t, u.MarkShipped(ctx, orders.ShipmentUpdate{OrderID: "1024", TrackingID: "  ", Provider: "pathao"}))
	assert.Error(t, u.MarkShipped(ctx, orders.ShipmentUpdate{OrderID: "1024", TrackingID: "DL1"}))
	assert.Empty(t, shipper.calls)
}

func TestDispatch_MarksOrderShippedOnce(t *testing.T) {
	f := newFixture()
	f.courier.TrackingID = "DL121224VS8TTJ"
	req := dispatch.DraftFromOrder(sampleOrder())

	res, err := f.dispatcher.Dispatch(context.Background(), "c-1", "pathao", &req)

	require.NoError(t, err)
	assert.True(t, res.StatusUpdated)
	assert.Empty(t, res.Warning)
	assert.Equal(t, "DL121224VS8TTJ", res.TrackingID)
	require.Len(t, f.shipper.calls, 1)
	assert.Equal(t, "1024", f.shipper.calls[0].OrderID)
	assert.Equal(t, "DL121224VS8TTJ", f.shipper.calls[0].TrackingID)
	assert.Equal(t, "pathao", f.shipper.calls[0].Provider)
	assert.Equal(t, "shipped", f.shipper.calls[0].Status)

	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, journal.OutcomeCreated, f.journal.entries[0].Outcome)
	assert.Equal(t, res.JournalID, f.journal.entries[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RequestsTotal.WithLabelValues("create_order", "pathao", "success")))
}

func TestDispatch_StatusUpdateFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	f.courier.TrackingID = "DL1"
	f.shipper.OnShip = func(u orders.ShipmentUpdate) error {
		return errors.New("order api down")
	}
	req := dispatch.DraftFromOrder(sampleOrder())

	res, err := f.dispatcher.Dispatch(context.Background(), "c-1", "pathao", &req)

	require.NoError(t, err)
	assert.False(t, res.StatusUpdated)
	assert.Equal(t, "order created but status not updated", res.Warning)
	assert.Equal(t, "DL1", res.Response.TrackingID())
	assert.Len(t, f.shipper.calls, 1, "write-back is not retried")

	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, journal.OutcomePartial, f.journal.entries[0].Outcome)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StatusUpdateFailures.WithLabelValues("pathao")))
}

func TestDispatch_NoTrackingIDWarnsAndJournalsUntracked(t *testing.T) {
	f := newFixture()
	f.courier.NoTracking = true
	ctx := context.Background()
	req := dispatch.DraftFromOrder(sampleOrder())

	res, err := f.dispatcher.Dispatch(ctx, "c-1", "pathao", &req)

	require.NoError(t, err)
	assert.False(t, res.StatusUpdated)
	assert.Equal(t, dispatch.WarnNoTrackingID, res.Warning)
	assert.Empty(t, f.shipper.calls)

	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, journal.OutcomeUntracked, f.journal.entries[0].Outcome)

	pending, err := f.dispatcher.Unreconciled(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	report, err := f.dispatcher.Reconcile(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Reconciled)
	assert.Empty(t, report.Failed)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "1024", report.Skipped[0].OrderID)
	assert.Empty(t, f.shipper.calls)
}

func TestDispatch_AdHocBookingWithoutTrackingIDHasNoWarning(t *testing.T) {
	f := newFixture()
	f.courier.NoTracking = true
	req := dispatch.DraftFromOrder(sampleOrder())
	req.OrderID = ""

	res, err := f.dispatcher.Dispatch(context.Background(), "c-1", "pathao", &req)

	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, journal.OutcomeCreated, f.journal.entries[0].Outcome)
}

func TestDispatch_AdHocBookingSkipsUpdate(t *testing.T) {
	f := newFixture()
	req := dispatch.DraftFromOrder(sampleOrder())
	req.OrderID = ""

	res, err := f.dispatcher.Dispatch(context.Background(), "c-1", "pathao", &req)

	require.NoError(t, err)
	assert.NotEmpty(t, res.TrackingID)
	assert.Empty(t, f.shipper.calls)
}

func TestDispatch_CourierErrorJournaled(t *testing.T) {
	f := newFixture()
	f.courier.Err = courier.NewHTTPError("pathao", 422, "Please fix the given errors")
	req := dispatch.DraftFromOrder(sampleOrder())

	res, err := f.dispatcher.Dispatch(context.Background(), "c-1", "pathao", &req)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, courier.ErrInvalidRequest)
	assert.Empty(t, f.shipper.calls)
	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, journal.OutcomeFailed, f.journal.entries[0].Outcome)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CourierErrors.WithLabelValues("pathao", "INVALID_REQUEST")))
}

func TestDispatch_UnknownProvider(t *testing.T) {
	f := newFixture()
	req := dispatch.DraftFromOrder(sampleOrder())

	_, err := f.dispatcher.Dispatch(context.Background(), "c-1", "dhl", &req)

	assert.ErrorIs(t, err, courier.ErrCarrierNotFound)
	assert.Empty(t, f.courier.Orders())
}

func TestDispatch_JournalFailureDoesNotFailDispatch(t *testing.T) {
	f := newFixture()
	f.journal.RecordErr = errors.New("db down")
	req := dispatch.DraftFromOrder(sampleOrder())

	res, err := f.dispatcher.Dispatch(context.Background(), "c-1", "pathao", &req)

	require.NoError(t, err)
	assert.True(t, res.StatusUpdated)
}

func TestReconcile(t *testing.T) {
	f := newFixture()
	f.courier.TrackingID = "DL1"
	fail := true
	f.shipper.OnShip = func(u orders.ShipmentUpdate) error {
		if fail {
			return errors.New("order api down")
		}
		return nil
	}
	ctx := context.Background()

	req := dispatch.DraftFromOrder(sampleOrder())
	req.Location.District = "Dhaka"
	_, err := f.dispatcher.Dispatch(ctx, "c-1", "pathao", &req)
	require.NoError(t, err)

	pending, err := f.dispatcher.Unreconciled(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Dhaka", pending[0].City)

	report, err := f.dispatcher.Reconcile(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Reconciled)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "1024", report.Failed[0].OrderID)

	fail = false
	report, err = f.dispatcher.Reconcile(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reconciled)
	assert.Empty(t, report.Failed)
	last := f.shipper.calls[len(f.shipper.calls)-1]
	assert.Equal(t, "DL1", last.TrackingID)
	assert.Equal(t, "Dhaka", last.City)

	pending, err = f.dispatcher.Unreconciled(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
