package pathao

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnStores           func(ctx context.Context) ([]Store, error)
	OnCities           func(ctx context.Context) ([]City, error)
	OnZones            func(ctx context.Context, cityID int) ([]Zone, error)
	OnAreas            func(ctx context.Context, zoneID int) ([]Area, error)
	OnCreateOrder      func(ctx context.Context, req *CreateOrderRequest) (json.RawMessage, error)
	OnCreateBulkOrders func(ctx context.Context, orders []CreateOrderRequest) (*BulkResponse, error)
	OnPricePlan        func(ctx context.Context, req *PricePlanRequest) (*PricePlan, error)
	OnOrderInfo        func(ctx context.Context, consignmentID string) (*OrderInfo, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{StatusCode: 500, Code: 500, Message: "Simulated API error"}
	}
	return nil
}

// Stores returns mock stores.
func (m *MockAPIClient) Stores(ctx context.Context) ([]Store, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnStores != nil {
		return m.OnStores(ctx)
	}
	return []Store{
		{StoreID: 10101, StoreName: "Banani Warehouse", StoreAddress: "House 12, Road 11, Banani, Dhaka", IsActive: 1, CityID: 1, ZoneID: 3},
	}, nil
}

// Cities returns mock cities.
func (m *MockAPIClient) Cities(ctx context.Context) ([]City, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCities != nil {
		return m.OnCities(ctx)
	}
	return []City{
		{CityID: 1, CityName: "Dhaka"},
		{CityID: 2, CityName: "Chittagong"},
	}, nil
}

// Zones returns mock zones for a city.
func (m *MockAPIClient) Zones(ctx context.Context, cityID int) ([]Zone, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnZones != nil {
		return m.OnZones(ctx, cityID)
	}
	return []Zone{
		{ZoneID: cityID*100 + 1, ZoneName: "Banani"},
		{ZoneID: cityID*100 + 2, ZoneName: "Gulshan"},
	}, nil
}

// Areas returns mock areas for a zone.
func (m *MockAPIClient) Areas(ctx context.Context, zoneID int) ([]Area, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnAreas != nil {
		return m.OnAreas(ctx, zoneID)
	}
	return []Area{
		{AreaID: zoneID*100 + 1, AreaName: "Road 11", HomeDeliveryAvailable: true, PickupAvailable: true},
	}, nil
}

// CreateOrder returns a mock order envelope.
func (m *MockAPIClient) CreateOrder(ctx context.Context, req *CreateOrderRequest) (json.RawMessage, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, req)
	}

	consignmentID := "DL" + time.Now().Format("060102") + strings.ToUpper(uuid.New().String()[:6])
	return json.Marshal(map[string]any{
		"message": "Order Created Successfully",
		"type":    "success",
		"code":    200,
		"data": CreateOrderData{
			ConsignmentID:   consignmentID,
			MerchantOrderID: req.MerchantOrderID,
			OrderStatus:     "Pending",
			DeliveryFee:     80,
		},
	})
}

// CreateBulkOrders acknowledges a mock batch.
func (m *MockAPIClient) CreateBulkOrders(ctx context.Context, orders []CreateOrderRequest) (*BulkResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateBulkOrders != nil {
		return m.OnCreateBulkOrders(ctx, orders)
	}
	return &BulkResponse{Message: "Your bulk order creation request is accepted, please wait some time to complete order creation.", Type: "success", Code: 202, Data: true}, nil
}

// PricePlan returns a mock price plan.
func (m *MockAPIClient) PricePlan(ctx context.Context, req *PricePlanRequest) (*PricePlan, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnPricePlan != nil {
		return m.OnPricePlan(ctx, req)
	}
	price := 60.0
	if req.RecipientCity != 1 {
		price = 110
	}
	return &PricePlan{Price: price, PlanID: 69, CODEnabled: 1, CODPercentage: 0.01, FinalPrice: price}, nil
}

// OrderInfo returns a mock order status.
func (m *MockAPIClient) OrderInfo(ctx context.Context, consignmentID string) (*OrderInfo, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnOrderInfo != nil {
		return m.OnOrderInfo(ctx, consignmentID)
	}
	return &OrderInfo{
		ConsignmentID:   consignmentID,
		MerchantOrderID: fmt.Sprintf("mo-%s", consignmentID),
		OrderStatus:     "Pending",
		OrderStatusSlug: "Pending",
		UpdatedAt:       time.Now().Format("2006-01-02 15:04:05"),
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
