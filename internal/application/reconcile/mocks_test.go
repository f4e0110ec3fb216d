package reconcile

import (
	"context"
	"sync"

	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/stretchr/testify/mock"
)

// MockOrderGateway is a mock implementation of OrderGateway
type MockOrderGateway struct {
	mock.Mock
}

func (m *MockOrderGateway) ListOrders(ctx context.Context, q orderapi.ListQuery) (*orderapi.OrderPage, error) {
	args := m.Called(ctx, q)
	page, _ := args.Get(0).(*orderapi.OrderPage)
	return page, args.Error(1)
}

func (m *MockOrderGateway) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderGateway) FetchShipmentStatus(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderGateway) SetOrderStatus(ctx context.Context, orderID string, change orderapi.StatusChange) error {
	args := m.Called(ctx, orderID, change)
	return args.Error(0)
}

func (m *MockOrderGateway) CancelOrder(ctx context.Context, orderID, reason string) error {
	args := m.Called(ctx, orderID, reason)
	return args.Error(0)
}

func (m *MockOrderGateway) CreateShipment(ctx context.Context, orderID string) (*orderapi.ShipmentResult, error) {
	args := m.Called(ctx, orderID)
	r, _ := args.Get(0).(*orderapi.ShipmentResult)
	return r, args.Error(1)
}

func (m *MockOrderGateway) CancelShipment(ctx context.Context, orderID, reason string) error {
	args := m.Called(ctx, orderID, reason)
	return args.Error(0)
}

func (m *MockOrderGateway) OverrideCarrierStatus(ctx context.Context, orderID string, code shipping.CarrierStatus) error {
	args := m.Called(ctx, orderID, code)
	return args.Error(0)
}

// recordingInvalidator counts invalidations per order
type recordingInvalidator struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingInvalidator) InvalidateOrder(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, orderID)
	return nil
}

func (r *recordingInvalidator) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// carrierOrder builds an order with a carrier shipment
func carrierOrder(id string, status order.OrderStatus, code shipping.CarrierStatus, version int) *order.Order {
	return &order.Order{
		ID:                id,
		Status:            status,
		PaymentStatus:     order.PaymentStatusPaid,
		FulfillmentMethod: order.FulfillmentCarrier,
		Shipping:          &shipping.Shipment{OrderCode: "GHN-" + id, StatusCode: code},
		Version:           version,
	}
}

// manualOrder builds an order without a shipment
func manualOrder(id string, status order.OrderStatus, version int) *order.Order {
	return &order.Order{
		ID:                id,
		Status:            status,
		PaymentStatus:     order.PaymentStatusPaid,
		FulfillmentMethod: order.FulfillmentManual,
		Version:           version,
	}
}

func singlePage(orders ...*order.Order) *orderapi.OrderPage {
	return &orderapi.OrderPage{Orders: orders, Total: len(orders), Page: 1, Limit: 100}
}

func apiError(orderID, op string, status int, msg string) *orderapi.ShippingAPIError {
	return &orderapi.ShippingAPIError{OrderID: orderID, Operation: op, StatusCode: status, Message: msg}
}
