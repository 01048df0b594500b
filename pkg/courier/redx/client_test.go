package redx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/redx"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *redx.MockAPIClient) *redx.Client {
	logger := otelzap.New(zap.NewNop())
	return redx.NewWithAPIClient(
		redx.Config{},
		mockClient,
		logger,
		nil,
	)
}

func validRequest() *courier.OrderRequest {
	return &courier.OrderRequest{
		OrderID:         "ord-7",
		MerchantOrderID: "ord-7",
		Recipient: courier.Recipient{
			Name:    "Karim",
			Phone:   "01811111111",
			Address: "Road 4, Dhanmondi",
		},
		Location:      courier.Location{AreaName: "Dhanmondi"},
		Item:          courier.Item{Quantity: 1, WeightKG: 0.5, Value: decimal.NewFromInt(1200)},
		CollectAmount: decimal.NewFromInt(1500),
	}
}

func TestResolveArea_DuplicateNamesResolveToFirst(t *testing.T) {
	areas := []redx.Area{
		{ID: 11, Name: "Sadar", DivisionName: "Cumilla"},
		{ID: 22, Name: "Sadar", DivisionName: "Feni"},
	}

	area, ok := redx.ResolveArea(areas, "Sadar")

	require.True(t, ok)
	assert.Equal(t, 11, area.ID)
}

func TestResolveArea_ExactNameOnly(t *testing.T) {
	areas := []redx.Area{{ID: 1, Name: "Mohammadpur(Dhaka)"}}

	_, ok := redx.ResolveArea(areas, "Mohammadpur")

	assert.False(t, ok)
}

func TestFilterFor(t *testing.T) {
	assert.Equal(t, redx.AreaFilter{Mode: redx.AreaModePostCode, Value: "1209"},
		redx.FilterFor(courier.Location{PostCode: "1209", District: "Dhaka"}))
	assert.Equal(t, redx.AreaFilter{Mode: redx.AreaModeDistrict, Value: "Dhaka"},
		redx.FilterFor(courier.Location{District: "Dhaka"}))
	assert.Equal(t, redx.AreaFilter{Mode: redx.AreaModeAll}, redx.FilterFor(courier.Location{}))
}

func TestMapParcel(t *testing.T) {
	p := redx.MapParcel(validRequest())

	assert.Equal(t, "Karim", p.CustomerName)
	assert.Equal(t, "Dhanmondi", p.DeliveryArea)
	assert.Equal(t, 500, p.ParcelWeight)
	assert.Equal(t, "1500", p.CashCollectionAmount)
	assert.Equal(t, "1200", p.Value)
	assert.Equal(t, "ord-7", p.MerchantInvoiceID)
}

func TestClient_CreateOrder_ResolvesAreaID(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	var sent *redx.ParcelRequest
	mockAPI.OnCreateParcel = func(ctx context.Context, req *redx.ParcelRequest) (*redx.ParcelResponse, error) {
		sent = req
		return &redx.ParcelResponse{TrackingID: "21A427TU4BN"}, nil
	}
	client := newTestClient(mockAPI)

	resp, err := client.CreateOrder(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "21A427TU4BN", resp.TrackingID())
	require.NotNil(t, sent)
	assert.Equal(t, 2, sent.DeliveryAreaID)
}

func TestClient_CreateOrder_UsesPostCodeList(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	var got redx.AreaQuery
	mockAPI.OnAreas = func(ctx context.Context, q redx.AreaQuery) ([]redx.Area, error) {
		got = q
		return []redx.Area{{ID: 99, Name: "Dhanmondi"}}, nil
	}
	client := newTestClient(mockAPI)

	req := validRequest()
	req.Location.PostCode = "1209"
	_, err := client.CreateOrder(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, redx.AreaQuery{PostCode: "1209"}, got)
}

func TestClient_CreateOrder_UnknownArea(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	mockAPI.OnCreateParcel = func(ctx context.Context, req *redx.ParcelRequest) (*redx.ParcelResponse, error) {
		t.Fatal("parcel must not be created without an area id")
		return nil, nil
	}
	client := newTestClient(mockAPI)

	req := validRequest()
	req.Location.AreaName = "Atlantis"
	_, err := client.CreateOrder(context.Background(), req)

	assert.ErrorIs(t, err, courier.ErrAreaNotFound)
}

func TestClient_CreateOrder_Validation(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	mockAPI.OnAreas = func(ctx context.Context, q redx.AreaQuery) ([]redx.Area, error) {
		t.Fatal("no lookups before validation passes")
		return nil, nil
	}
	client := newTestClient(mockAPI)

	req := validRequest()
	req.Recipient.Phone = ""
	req.Location.AreaName = ""
	req.Item.WeightKG = 0
	req.CollectAmount = decimal.NewFromInt(-1)

	_, err := client.CreateOrder(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, courier.ErrInvalidRequest))
	for _, field := range []string{"customer_phone", "delivery_area", "parcel_weight", "cash_collection_amount"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestClient_CreateOrder_APIError(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	req := validRequest()
	req.Location.AreaID = 2
	_, err := client.CreateOrder(context.Background(), req)

	var ce *courier.CourierError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "SERVICE_UNAVAILABLE", ce.Code)
	assert.True(t, courier.IsRetryable(err))
}

func TestClient_TrackOrder(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	mockAPI.OnParcelInfo = func(ctx context.Context, id string) (*redx.ParcelInfo, error) {
		return &redx.ParcelInfo{TrackingID: id, Status: "delivered"}, nil
	}
	client := newTestClient(mockAPI)

	resp, err := client.TrackOrder(context.Background(), "21A427TU4BN")

	require.NoError(t, err)
	assert.Equal(t, courier.StatusDelivered, resp.Status)
	assert.Len(t, resp.Events, 2)
	require.NotNil(t, resp.UpdatedAt)
}

func TestClient_Quote(t *testing.T) {
	mockAPI := redx.NewMockAPIClient()
	var got redx.ChargeQuery
	mockAPI.OnCalculateCharge = func(ctx context.Context, q redx.ChargeQuery) (*redx.ChargeResponse, error) {
		got = q
		return &redx.ChargeResponse{DeliveryCharge: 60, CODCharge: 15}, nil
	}
	client := newTestClient(mockAPI)

	resp, err := client.Quote(context.Background(), &courier.QuoteRequest{
		Location:      courier.Location{AreaName: "Banani"},
		Item:          courier.Item{WeightKG: 1.2},
		CollectAmount: decimal.NewFromInt(1500),
	})

	require.NoError(t, err)
	assert.Equal(t, redx.ChargeQuery{DeliveryAreaID: 3, PickupAreaID: 2, CashCollectionAmount: "1500", Weight: 1200}, got)
	assert.True(t, decimal.NewFromInt(75).Equal(resp.Total))
}

func TestClient_Areas_FilterWithoutValue(t *testing.T) {
	client := newTestClient(redx.NewMockAPIClient())

	areas, err := client.Areas(context.Background(), redx.AreaFilter{Mode: redx.AreaModeDistrict})

	require.NoError(t, err)
	assert.Empty(t, areas)
}

func TestHTTPAPIClient_AreasQueryAndHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("API-ACCESS-TOKEN"))
		assert.Equal(t, "/areas", r.URL.Path)
		assert.Equal(t, "Dhaka", r.URL.Query().Get("district_name"))
		assert.Empty(t, r.URL.Query().Get("post_code"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"areas": []map[string]any{{"id": 2, "name": "Dhanmondi", "post_code": 1209, "division_name": "Dhaka", "zone_id": 1}},
		})
	}))
	defer srv.Close()

	api := redx.NewHTTPAPIClient(redx.HTTPAPIClientConfig{BaseURL: srv.URL, AccessToken: "secret"})
	areas, err := api.Areas(context.Background(), redx.AreaQuery{DistrictName: "Dhaka"})

	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, 1209, areas[0].PostCode)
}

func TestHTTPAPIClient_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
	}))
	defer srv.Close()

	api := redx.NewHTTPAPIClient(redx.HTTPAPIClientConfig{BaseURL: srv.URL})
	_, err := api.CreateParcel(context.Background(), &redx.ParcelRequest{})

	var apiErr *redx.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}

func TestClient_NonJSONErrorUsesFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html><body>502 Bad Gateway</body></html>\n"))
	}))
	defer srv.Close()

	api := redx.NewHTTPAPIClient(redx.HTTPAPIClientConfig{BaseURL: srv.URL})
	client := redx.NewWithAPIClient(redx.Config{}, api, otelzap.New(zap.NewNop()), nil)

	_, err := client.PickupStores(context.Background())

	require.Error(t, err)
	assert.Equal(t, courier.FallbackMessage, courier.UserMessage(err))
	var ce *courier.CourierError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "<html><body>502 Bad Gateway</body></html>", ce.Detail)
}
