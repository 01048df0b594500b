package orders_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/orders"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type listerFunc func(ctx context.Context, companyID string) ([]orders.Order, error)

func (f listerFunc) List(ctx context.Context, companyID string) ([]orders.Order, error) {
	return f(ctx, companyID)
}

type counterStub struct{ n atomic.Int64 }

func (c *counterStub) Inc() { c.n.Add(1) }

func testLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func TestSource_ProcessingOrders_CaseInsensitive(t *testing.T) {
	lister := listerFunc(func(ctx context.Context, companyID string) ([]orders.Order, error) {
		assert.Equal(t, "c-1", companyID)
		return []orders.Order{
			{ID: "1", Status: "processing"},
			{ID: "2", Status: "Processing"},
			{ID: "3", Status: " PROCESSING "},
			{ID: "4", Status: "shipped"},
			{ID: "5", Status: "pending"},
			{ID: "6", Status: "processing-hold"},
		}, nil
	})
	src := orders.NewSource(lister, testLogger())

	got := src.ProcessingOrders(context.Background(), "c-1")

	ids := make([]string, len(got))
	for i, o := range got {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestSource_ProcessingOrders_FetchErrorYieldsEmpty(t *testing.T) {
	lister := listerFunc(func(ctx context.Context, companyID string) ([]orders.Order, error) {
		return nil, errors.New("connection refused")
	})
	src := orders.NewSource(lister, testLogger())

	got := src.ProcessingOrders(context.Background(), "c-1")

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSource_Options(t *testing.T) {
	lister := listerFunc(func(ctx context.Context, companyID string) ([]orders.Order, error) {
		return []orders.Order{
			{ID: "1024", Status: "processing", Customer: orders.Customer{Name: "Rahim"}, TotalAmount: decimal.NewFromInt(1500)},
			{ID: "1025", Status: "delivered", Customer: orders.Customer{Name: "Karim"}},
		}, nil
	})
	src := orders.NewSource(lister, testLogger())

	opts := src.Options(context.Background(), "c-1")

	require.Len(t, opts, 1)
	assert.Equal(t, orders.Option{Value: "1024", Label: "#1024 - Rahim - 1500.00"}, opts[0])
}

func TestSource_Find(t *testing.T) {
	lister := listerFunc(func(ctx context.Context, companyID string) ([]orders.Order, error) {
		return []orders.Order{{ID: "1", Status: "processing"}, {ID: "2", Status: "shipped"}}, nil
	})
	src := orders.NewSource(lister, testLogger())

	o, ok := src.Find(context.Background(), "c", "1")
	require.True(t, ok)
	assert.Equal(t, "1", o.ID)

	_, ok = src.Find(context.Background(), "c", "2")
	assert.False(t, ok, "shipped orders are not selectable")
}

func TestOrder_DeliveryAddress(t *testing.T) {
	o := orders.Order{BillingAddress: "Billing St"}
	assert.Equal(t, "Billing St", o.DeliveryAddress())

	o.ShippingAddress = "Shipping Rd"
	assert.Equal(t, "Shipping Rd", o.DeliveryAddress())
}

func TestClient_List_EncodesCompanyAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "acme & co", r.URL.Query().Get("companyId"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"1","status":"processing","totalAmount":"1500","customer":{"name":"Rahim"},"items":[{"name":"T-Shirt","quantity":1,"price":"1500"}]}]`))
	}))
	defer srv.Close()

	client := orders.NewClient(orders.ClientConfig{BaseURL: srv.URL, Token: "tok"}, testLogger(), nil)
	got, err := client.List(context.Background(), "acme & co")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, decimal.NewFromInt(1500).Equal(got[0].TotalAmount))
	assert.Equal(t, "T-Shirt", got[0].Items[0].Name)
}

func TestClient_List_DataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"9","status":"shipped","totalAmount":10}]}`))
	}))
	defer srv.Close()

	client := orders.NewClient(orders.ClientConfig{BaseURL: srv.URL}, testLogger(), nil)
	got, err := client.List(context.Background(), "c")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "9", got[0].ID)
}

func TestClient_List_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	retries := &counterStub{}
	client := orders.NewClient(orders.ClientConfig{
		BaseURL: srv.URL,
		Retry:   orders.RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}, testLogger(), retries)

	got, err := client.List(context.Background(), "c")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(2), retries.n.Load())
}

func TestClient_List_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"forbidden"}`))
	}))
	defer srv.Close()

	client := orders.NewClient(orders.ClientConfig{
		BaseURL: srv.URL,
		Retry:   orders.RetryConfig{MaxAttempts: 5},
	}, testLogger(), nil)

	_, err := client.List(context.Background(), "c")

	var apiErr *orders.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "forbidden", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Ship(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/orders/1024/ship", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := orders.NewClient(orders.ClientConfig{BaseURL: srv.URL}, testLogger(), nil)
	err := client.Ship(context.Background(), orders.ShipmentUpdate{
		OrderID:    "1024",
		TrackingID: "DL121224VS8TTJ",
		Provider:   "pathao",
		Status:     orders.StatusShipped,
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"shippingTrackingId": "DL121224VS8TTJ",
		"shippingProvider":   "pathao",
		"status":             "shipped",
	}, body)
}

func TestClient_Ship_NotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := orders.NewClient(orders.ClientConfig{BaseURL: srv.URL, Retry: orders.RetryConfig{MaxAttempts: 3}}, testLogger(), nil)
	err := client.Ship(context.Background(), orders.ShipmentUpdate{OrderID: "1", TrackingID: "T", Provider: "redx", Status: "shipped"})

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Get_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","status":"processing"}]`))
	}))
	defer srv.Close()

	client := orders.NewClient(orders.ClientConfig{BaseURL: srv.URL}, testLogger(), nil)

	o, err := client.Get(context.Background(), "c", "1")
	require.NoError(t, err)
	assert.Equal(t, "1", o.ID)

	_, err = client.Get(context.Background(), "c", "2")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}
