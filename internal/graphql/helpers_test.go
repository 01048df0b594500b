package graphql_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	gqlgen "github.com/99designs/gqlgen/graphql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/dispatch"
	"github.com/tournevent/courier/internal/graphql"
	"github.com/tournevent/courier/internal/location"
	"github.com/tournevent/courier/internal/orders"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/mock"
	"github.com/tournevent/courier/pkg/courier/pathao"
	"github.com/tournevent/courier/pkg/courier/steadfast"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type listerStub struct {
	orders []orders.Order
	err    error
}

func (l *listerStub) List(ctx context.Context, companyID string) ([]orders.Order, error) {
	return l.orders, l.err
}

type shipperStub struct {
	mu    sync.Mutex
	calls []orders.ShipmentUpdate
}

func (s *shipperStub) Ship(ctx context.Context, u orders.ShipmentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, u)
	return nil
}

type fixture struct {
	resolver  *graphql.Resolver
	lister    *listerStub
	shipper   *shipperStub
	booker    *mock.Client
	pathaoAPI *pathao.MockAPIClient
	sfAPI     *steadfast.MockAPIClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

	f := &fixture{
		lister: &listerStub{orders: []orders.Order{
			{
				ID:              "1024",
				Status:          "Processing",
				Customer:        orders.Customer{Name: "Rahim Uddin", Phone: "01712345678"},
				ShippingAddress: "House 12, Road 5, Dhanmondi",
				TotalAmount:     decimal.NewFromInt(1500),
				Items:           []orders.LineItem{{Name: "T-Shirt", Quantity: 1, Price: decimal.NewFromInt(1500)}},
			},
			{ID: "1025", Status: "shipped", TotalAmount: decimal.NewFromInt(900)},
		}},
		shipper:   &shipperStub{},
		booker:    mock.New("booker", 60),
		pathaoAPI: pathao.NewMockAPIClient(),
		sfAPI:     steadfast.NewMockAPIClient(),
	}
	f.booker.TrackingID = "BK-1"

	pathaoClient := pathao.NewWithAPIClient(pathao.Config{}, f.pathaoAPI, logger, nil)
	sfClient := steadfast.NewWithAPIClient(steadfast.Config{}, f.sfAPI, logger, nil)

	registry := courier.NewRegistry()
	registry.Register(pathaoClient)
	registry.Register(sfClient)
	registry.Register(f.booker)
	registry.Register(mock.NewQuoter("quoter", 80))

	source := orders.NewSource(f.lister, logger)
	dispatcher := dispatch.NewDispatcher(registry, dispatch.NewUpdater(f.shipper), nil, logger, metrics)
	lookup := location.NewLookup(location.Sources{Pathao: pathaoClient, Steadfast: sfClient}, nil)

	f.resolver = graphql.NewResolver(registry, source, dispatcher, lookup, logger, metrics)
	return f
}

func (f *fixture) exec(t *testing.T, query string, vars map[string]any) *gqlgen.Response {
	t.Helper()
	return f.resolver.Execute(context.Background(), graphql.Request{Query: query, Variables: vars})
}

func decodeData(t *testing.T, resp *gqlgen.Response) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data
}

func graphqlRequest(query, operation string) graphql.Request {
	return graphql.Request{Query: query, OperationName: operation}
}
