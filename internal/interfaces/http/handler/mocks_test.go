package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopadmin/backend/internal/application/reconcile"
	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/shopadmin/backend/internal/infrastructure/scheduler"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
	"github.com/shopadmin/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockOrderReader implements OrderReader for testing
type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) List(ctx context.Context, q orderapi.ListQuery) (*orderapi.OrderPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapi.OrderPage), args.Error(1)
}

func (m *MockOrderReader) Get(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

// MockOrderMutator implements OrderMutator for testing
type MockOrderMutator struct {
	mock.Mock
}

func (m *MockOrderMutator) ChangeStatus(ctx context.Context, cmd reconcile.ChangeStatusCommand) (*reconcile.ChangeStatusResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.ChangeStatusResult), args.Error(1)
}

func (m *MockOrderMutator) ForceCancel(ctx context.Context, orderID, reason string) error {
	return m.Called(ctx, orderID, reason).Error(0)
}

func (m *MockOrderMutator) CreateShipment(ctx context.Context, orderID string) (*orderapi.ShipmentResult, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapi.ShipmentResult), args.Error(1)
}

func (m *MockOrderMutator) CancelShipment(ctx context.Context, orderID, reason string) error {
	return m.Called(ctx, orderID, reason).Error(0)
}

func (m *MockOrderMutator) OverrideCarrierStatus(ctx context.Context, orderID string, code shipping.CarrierStatus) (*reconciliation.Outcome, error) {
	args := m.Called(ctx, orderID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Outcome), args.Error(1)
}

// MockOrderRefresher implements OrderRefresher for testing
type MockOrderRefresher struct {
	mock.Mock
}

func (m *MockOrderRefresher) RefreshOrder(ctx context.Context, orderID string) (*reconciliation.Outcome, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Outcome), args.Error(1)
}

// MockReconcileController implements ReconcileController for testing
type MockReconcileController struct {
	mock.Mock
}

func (m *MockReconcileController) RunNow(ctx context.Context) (*reconciliation.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Report), args.Error(1)
}

func (m *MockReconcileController) Status() scheduler.Status {
	return m.Called().Get(0).(scheduler.Status)
}

func (m *MockReconcileController) SetAutoRefresh(ctx context.Context, enabled bool, updatedBy string) (reconciliation.Settings, error) {
	args := m.Called(ctx, enabled, updatedBy)
	return args.Get(0).(reconciliation.Settings), args.Error(1)
}

func (m *MockReconcileController) RecentRuns(ctx context.Context, limit int) ([]reconciliation.Report, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconciliation.Report), args.Error(1)
}

func (m *MockReconcileController) GetRun(ctx context.Context, id uuid.UUID) (*reconciliation.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Report), args.Error(1)
}

// envelope decodes dto.Response with a typed payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// withAdmin authenticates every request as subject
func withAdmin(subject string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTSubjectKey, subject)
		c.Next()
	}
}

func manualOrder(id string, status order.OrderStatus) *order.Order {
	return &order.Order{
		ID:                id,
		Status:            status,
		PaymentStatus:     order.PaymentStatusPaid,
		FulfillmentMethod: order.FulfillmentManual,
		Version:           3,
	}
}

func carrierOrder(id string, status order.OrderStatus, code shipping.CarrierStatus) *order.Order {
	return &order.Order{
		ID:                id,
		Status:            status,
		PaymentStatus:     order.PaymentStatusPaid,
		FulfillmentMethod: order.FulfillmentCarrier,
		Shipping:          &shipping.Shipment{OrderCode: "GHN-" + id, StatusCode: code},
		Version:           5,
	}
}
