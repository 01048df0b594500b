package steadfast

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCreateOrder         func(ctx context.Context, req *OrderRequest) (*Consignment, error)
	OnCreateBulkOrders    func(ctx context.Context, orders []OrderRequest) ([]BulkResult, error)
	OnStatus              func(ctx context.Context, kind LookupKind, id string) (string, error)
	OnBalance             func(ctx context.Context) (float64, error)
	OnPayments            func(ctx context.Context) ([]Payment, error)
	OnPayment             func(ctx context.Context, id int) (*Payment, error)
	OnCreateReturnRequest func(ctx context.Context, req *ReturnRequestInput) (*ReturnRequest, error)
	OnReturnRequests      func(ctx context.Context) ([]ReturnRequest, error)
	OnReturnRequest       func(ctx context.Context, id int) (*ReturnRequest, error)
	OnPoliceStations      func(ctx context.Context) ([]PoliceStation, error)

	nextID atomic.Int64
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	m := &MockAPIClient{}
	m.nextID.Store(1424107)
	return m
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

func (m *MockAPIClient) consignment(req *OrderRequest) Consignment {
	now := time.Now().UTC().Format(time.RFC3339)
	return Consignment{
		ConsignmentID:    m.nextID.Add(1),
		Invoice:          req.Invoice,
		TrackingCode:     strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8]),
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		RecipientAddress: req.RecipientAddress,
		CODAmount:        req.CODAmount,
		Status:           "in_review",
		Note:             req.Note,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CreateOrder returns a mock consignment.
func (m *MockAPIClient) CreateOrder(ctx context.Context, req *OrderRequest) (*Consignment, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, req)
	}
	c := m.consignment(req)
	return &c, nil
}

// CreateBulkOrders books every order in the batch.
func (m *MockAPIClient) CreateBulkOrders(ctx context.Context, orders []OrderRequest) ([]BulkResult, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateBulkOrders != nil {
		return m.OnCreateBulkOrders(ctx, orders)
	}
	results := make([]BulkResult, len(orders))
	for i := range orders {
		c := m.consignment(&orders[i])
		results[i] = BulkResult{
			Invoice:          c.Invoice,
			RecipientName:    c.RecipientName,
			RecipientAddress: c.RecipientAddress,
			RecipientPhone:   c.RecipientPhone,
			CODAmount:        c.CODAmount,
			Note:             c.Note,
			ConsignmentID:    c.ConsignmentID,
			TrackingCode:     c.TrackingCode,
			Status:           "success",
		}
	}
	return results, nil
}

// Status returns a mock delivery status.
func (m *MockAPIClient) Status(ctx context.Context, kind LookupKind, id string) (string, error) {
	if err := m.simulate(); err != nil {
		return "", err
	}
	if m.OnStatus != nil {
		return m.OnStatus(ctx, kind, id)
	}
	return "in_review", nil
}

// Balance returns a mock balance.
func (m *MockAPIClient) Balance(ctx context.Context) (float64, error) {
	if err := m.simulate(); err != nil {
		return 0, err
	}
	if m.OnBalance != nil {
		return m.OnBalance(ctx)
	}
	return 0, nil
}

// Payments returns no payouts.
func (m *MockAPIClient) Payments(ctx context.Context) ([]Payment, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnPayments != nil {
		return m.OnPayments(ctx)
	}
	return []Payment{}, nil
}

// Payment returns a mock payout.
func (m *MockAPIClient) Payment(ctx context.Context, id int) (*Payment, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnPayment != nil {
		return m.OnPayment(ctx, id)
	}
	return &Payment{ID: id, Status: "paid", CreatedAt: time.Now().UTC().Format(time.RFC3339)}, nil
}

// CreateReturnRequest returns a pending mock return.
func (m *MockAPIClient) CreateReturnRequest(ctx context.Context, req *ReturnRequestInput) (*ReturnRequest, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateReturnRequest != nil {
		return m.OnCreateReturnRequest(ctx, req)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return &ReturnRequest{
		ID:            int(m.nextID.Add(1)),
		ConsignmentID: req.ConsignmentID,
		Reason:        req.Reason,
		Status:        "pending",
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ReturnRequests returns no returns.
func (m *MockAPIClient) ReturnRequests(ctx context.Context) ([]ReturnRequest, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnReturnRequests != nil {
		return m.OnReturnRequests(ctx)
	}
	return []ReturnRequest{}, nil
}

// ReturnRequest returns a mock return.
func (m *MockAPIClient) ReturnRequest(ctx context.Context, id int) (*ReturnRequest, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnReturnRequest != nil {
		return m.OnReturnRequest(ctx, id)
	}
	return &ReturnRequest{ID: id, Status: "pending"}, nil
}

// PoliceStations returns mock police stations.
func (m *MockAPIClient) PoliceStations(ctx context.Context) ([]PoliceStation, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnPoliceStations != nil {
		return m.OnPoliceStations(ctx)
	}
	return []PoliceStation{{ID: 1, Name: "Dhanmondi"}, {ID: 2, Name: "Gulshan"}}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
