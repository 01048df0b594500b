package redx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnAreas           func(ctx context.Context, q AreaQuery) ([]Area, error)
	OnPickupStores    func(ctx context.Context) ([]PickupStore, error)
	OnCreateParcel    func(ctx context.Context, req *ParcelRequest) (*ParcelResponse, error)
	OnTrackParcel     func(ctx context.Context, trackingID string) ([]TrackingEntry, error)
	OnParcelInfo      func(ctx context.Context, trackingID string) (*ParcelInfo, error)
	OnCalculateCharge func(ctx context.Context, q ChargeQuery) (*ChargeResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

var mockAreas = []Area{
	{ID: 1, Name: "Mohammadpur(Dhaka)", PostCode: 1207, DivisionName: "Dhaka", ZoneID: 1},
	{ID: 2, Name: "Dhanmondi", PostCode: 1209, DivisionName: "Dhaka", ZoneID: 1},
	{ID: 3, Name: "Banani", PostCode: 1213, DivisionName: "Dhaka", ZoneID: 2},
	{ID: 40, Name: "Agrabad", PostCode: 4100, DivisionName: "Chattogram", ZoneID: 7},
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{StatusCode: 500, Message: "Simulated API error"}
	}
	return nil
}

// Areas returns mock areas, filtered like the real endpoint.
func (m *MockAPIClient) Areas(ctx context.Context, q AreaQuery) ([]Area, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnAreas != nil {
		return m.OnAreas(ctx, q)
	}

	var out []Area
	for _, a := range mockAreas {
		switch {
		case q.PostCode != "" && strconv.Itoa(a.PostCode) != q.PostCode:
			continue
		case q.DistrictName != "" && !strings.EqualFold(a.DivisionName, q.DistrictName):
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// PickupStores returns mock pickup stores.
func (m *MockAPIClient) PickupStores(ctx context.Context) ([]PickupStore, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnPickupStores != nil {
		return m.OnPickupStores(ctx)
	}
	return []PickupStore{
		{ID: 7, Name: "Main Warehouse", Address: "Road 27, Dhanmondi", AreaName: "Dhanmondi", AreaID: 2, Phone: "01700000000"},
	}, nil
}

// CreateParcel returns a mock tracking id.
func (m *MockAPIClient) CreateParcel(ctx context.Context, req *ParcelRequest) (*ParcelResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateParcel != nil {
		return m.OnCreateParcel(ctx, req)
	}
	return &ParcelResponse{
		TrackingID: time.Now().Format("060102") + "A" + strings.ToUpper(uuid.New().String()[:5]),
	}, nil
}

// TrackParcel returns a mock history.
func (m *MockAPIClient) TrackParcel(ctx context.Context, trackingID string) ([]TrackingEntry, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnTrackParcel != nil {
		return m.OnTrackParcel(ctx, trackingID)
	}
	return []TrackingEntry{
		{MessageEN: "Package is created successfully", Time: time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)},
		{MessageEN: "Package is picked up", Time: time.Now().UTC().Format(time.RFC3339)},
	}, nil
}

// ParcelInfo returns mock parcel details.
func (m *MockAPIClient) ParcelInfo(ctx context.Context, trackingID string) (*ParcelInfo, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnParcelInfo != nil {
		return m.OnParcelInfo(ctx, trackingID)
	}
	return &ParcelInfo{
		TrackingID:        trackingID,
		Status:            "pickup-pending",
		MerchantInvoiceID: fmt.Sprintf("inv-%s", trackingID),
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// CalculateCharge returns a mock charge: 60 within Dhaka division areas, 120 elsewhere.
func (m *MockAPIClient) CalculateCharge(ctx context.Context, q ChargeQuery) (*ChargeResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCalculateCharge != nil {
		return m.OnCalculateCharge(ctx, q)
	}
	charge := 120.0
	if q.DeliveryAreaID < 10 {
		charge = 60
	}
	cod, _ := strconv.ParseFloat(q.CashCollectionAmount, 64)
	return &ChargeResponse{DeliveryCharge: charge, CODCharge: cod * 0.01}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
