package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(gw *MockOrderGateway, views ViewInvalidator) *Service {
	return NewService(gw, views, Config{CallDelay: 0, PageSize: 100}, zap.NewNop())
}

var firstPage = orderapi.ListQuery{Page: 1, Limit: 100}

// =============================================================================
// Working set
// =============================================================================

func TestRunBatch_WorkingSetSkipsManualAndTerminalOrders(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, &recordingInvalidator{})

	active := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivering, 3)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(
		active,
		manualOrder("m", order.OrderStatusProcessing, 1),
		carrierOrder("done", order.OrderStatusCompleted, shipping.CarrierDelivered, 9),
		carrierOrder("gone", order.OrderStatusCancelled, shipping.CarrierCancel, 4),
	), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(active, nil).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Total)
	assert.Equal(t, "a", report.Outcomes[0].OrderID)
	gw.AssertNotCalled(t, "FetchShipmentStatus", mock.Anything, "m")
	gw.AssertNotCalled(t, "FetchShipmentStatus", mock.Anything, "done")
	gw.AssertExpectations(t)
}

func TestRunBatch_PagesThroughOrders(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := NewService(gw, nil, Config{PageSize: 2}, zap.NewNop())

	a := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	b := carrierOrder("b", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	c := carrierOrder("c", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	gw.On("ListOrders", mock.Anything, orderapi.ListQuery{Page: 1, Limit: 2}).
		Return(&orderapi.OrderPage{Orders: []*order.Order{a, b}, Total: 3}, nil).Once()
	gw.On("ListOrders", mock.Anything, orderapi.ListQuery{Page: 2, Limit: 2}).
		Return(&orderapi.OrderPage{Orders: []*order.Order{c}, Total: 3}, nil).Once()
	for _, o := range []*order.Order{a, b, c} {
		gw.On("FetchShipmentStatus", mock.Anything, o.ID).Return(o, nil).Once()
	}

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerOnDemand)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Unchanged)
	gw.AssertExpectations(t)
}

func TestRunBatch_ListFailure(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, nil)

	netErr := &orderapi.NetworkError{Operation: orderapi.OpListOrders, Err: errors.New("connection refused")}
	gw.On("ListOrders", mock.Anything, firstPage).Return(nil, netErr).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.Error(t, err)
	assert.ErrorIs(t, err, orderapi.ErrNetwork)
	require.NotNil(t, report)
	assert.Equal(t, reconciliation.RunStatusFailed, report.Status)
	assert.Zero(t, report.Total)
}

// =============================================================================
// Commit only when the mapped status differs
// =============================================================================

func TestRunBatch_CommitsMappedStatus(t *testing.T) {
	gw := new(MockOrderGateway)
	views := &recordingInvalidator{}
	svc := newTestService(gw, views)

	listed := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivering, 4)
	fetched := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierReturned, 5)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(listed), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(fetched, nil).Once()
	gw.On("SetOrderStatus", mock.Anything, "a", orderapi.StatusChange{
		Status:          order.OrderStatusCancelled,
		Reason:          order.ReasonDeliveryFailed,
		ExpectedVersion: 5,
	}).Return(nil).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, reconciliation.ResultUpdated, out.Result)
	assert.Equal(t, order.OrderStatusShipped, out.Previous)
	assert.Equal(t, order.OrderStatusCancelled, out.Target)
	assert.Equal(t, shipping.CarrierReturned, out.CarrierStatus)
	assert.Equal(t, "GHN-a", out.OrderCode)
	assert.Equal(t, reconciliation.RunStatusSuccess, report.Status)
	assert.Equal(t, []string{"a"}, views.Calls())
	gw.AssertExpectations(t)
}

func TestRunBatch_AlreadyShippedIssuesNoMutation(t *testing.T) {
	gw := new(MockOrderGateway)
	views := &recordingInvalidator{}
	svc := newTestService(gw, views)

	o := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierPicked, 2)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(o), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(o, nil).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, reconciliation.ResultUnchanged, report.Outcomes[0].Result)
	assert.Equal(t, order.OrderStatusShipped, report.Outcomes[0].Target)
	gw.AssertNotCalled(t, "SetOrderStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, views.Calls(), "no mutation, nothing to invalidate")
}

func TestRunBatch_ExceptionAndUnknownCodesLeaveOrder(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, nil)

	a := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierException, 1)
	b := carrierOrder("b", order.OrderStatusShipped, shipping.CarrierStatus("lost_in_space"), 1)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(a, b), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(a, nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "b").Return(b, nil).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Unchanged)
	for _, out := range report.Outcomes {
		assert.Empty(t, out.Target)
	}
	gw.AssertNotCalled(t, "SetOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunBatch_SecondPassIsIdempotent(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, nil)

	before := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivered, 1)
	after := carrierOrder("a", order.OrderStatusDelivered, shipping.CarrierDelivered, 2)

	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(before), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(before, nil).Once()
	gw.On("SetOrderStatus", mock.Anything, "a", mock.Anything).Return(nil).Once()
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(after), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(after, nil).Once()

	first, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)
	assert.Zero(t, second.Updated)
	assert.Equal(t, 1, second.Unchanged)

	gw.AssertNumberOfCalls(t, "SetOrderStatus", 1)
	gw.AssertExpectations(t)
}

// =============================================================================
// Partial failure
// =============================================================================

func TestRunBatch_FetchFailureIsIsolated(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, nil)

	a := carrierOrder("a", order.OrderStatusProcessing, shipping.CarrierPicking, 1)
	b := carrierOrder("b", order.OrderStatusProcessing, shipping.CarrierPicking, 1)
	c := carrierOrder("c", order.OrderStatusShipped, shipping.CarrierDelivered, 1)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(a, b, c), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(a, nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "b").
		Return(nil, &orderapi.NetworkError{OrderID: "b", Operation: orderapi.OpFetchShipmentStatus, Err: errors.New("timeout")}).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "c").Return(c, nil).Once()
	gw.On("SetOrderStatus", mock.Anything, "a", mock.MatchedBy(func(ch orderapi.StatusChange) bool {
		return ch.Status == order.OrderStatusShipped
	})).Return(nil).Once()
	gw.On("SetOrderStatus", mock.Anything, "c", mock.MatchedBy(func(ch orderapi.StatusChange) bool {
		return ch.Status == order.OrderStatusDelivered
	})).Return(&orderapi.ValidationError{
		ShippingAPIError: apiError("c", orderapi.OpSetOrderStatus, 422, "Invalid status transition"),
	}).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err, "per-order failures are not propagated")

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, reconciliation.ResultUpdated, report.Outcomes[0].Result)

	assert.Equal(t, reconciliation.ResultUnchanged, report.Outcomes[1].Result)
	assert.True(t, report.Outcomes[1].FetchFailed)
	assert.Contains(t, report.Outcomes[1].Error, "timeout")

	assert.Equal(t, reconciliation.ResultFailed, report.Outcomes[2].Result)
	assert.Contains(t, report.Outcomes[2].Error, "Invalid status transition")

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, reconciliation.RunStatusPartial, report.Status)
	gw.AssertExpectations(t)
}

func TestRunBatch_ConflictMarksOrderFailed(t *testing.T) {
	gw := new(MockOrderGateway)
	views := &recordingInvalidator{}
	svc := newTestService(gw, views)

	a := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivered, 7)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(a), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(a, nil).Once()
	gw.On("SetOrderStatus", mock.Anything, "a", mock.Anything).
		Return(&orderapi.ConflictError{ShippingAPIError: apiError("a", orderapi.OpSetOrderStatus, 409, "version mismatch")}).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.ResultFailed, report.Outcomes[0].Result)
	assert.Equal(t, reconciliation.RunStatusFailed, report.Status)
	assert.Equal(t, []string{"a"}, views.Calls(), "failed mutations still invalidate")
}

func TestRunBatch_AuthErrorAbortsRemainingOrders(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, nil)

	a := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	b := carrierOrder("b", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	c := carrierOrder("c", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(a, b, c), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(a, nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "b").
		Return(nil, &orderapi.AuthError{ShippingAPIError: apiError("b", orderapi.OpFetchShipmentStatus, 401, "token expired")}).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerOnDemand)
	require.Error(t, err)
	assert.ErrorIs(t, err, orderapi.ErrAuth)

	assert.Equal(t, reconciliation.RunStatusFailed, report.Status)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, reconciliation.ResultFailed, report.Outcomes[1].Result)
	gw.AssertNotCalled(t, "FetchShipmentStatus", mock.Anything, "c")
}

func TestRunBatch_CancelledContextStops(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.RunBatch(ctx, reconciliation.TriggerScheduled)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, reconciliation.RunStatusFailed, report.Status)
	gw.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

// =============================================================================
// Pacing
// =============================================================================

func TestRunBatch_SpacesBackendCalls(t *testing.T) {
	gw := new(MockOrderGateway)
	delay := 30 * time.Millisecond
	svc := NewService(gw, nil, Config{CallDelay: delay, PageSize: 100}, zap.NewNop())

	a := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	b := carrierOrder("b", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	c := carrierOrder("c", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(a, b, c), nil).Once()
	for _, o := range []*order.Order{a, b, c} {
		gw.On("FetchShipmentStatus", mock.Anything, o.ID).Return(o, nil).Once()
	}

	start := time.Now()
	_, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)

	// four calls, the first one is not delayed
	assert.GreaterOrEqual(t, time.Since(start), 3*delay-5*time.Millisecond)
}

// =============================================================================
// Single-order refresh
// =============================================================================

func TestRefreshOrder(t *testing.T) {
	t.Run("applies the shared mapping", func(t *testing.T) {
		gw := new(MockOrderGateway)
		views := &recordingInvalidator{}
		svc := newTestService(gw, views)

		current := carrierOrder("a", order.OrderStatusProcessing, shipping.CarrierReadyToPick, 2)
		fetched := carrierOrder("a", order.OrderStatusProcessing, shipping.CarrierCancel, 2)
		gw.On("GetOrder", mock.Anything, "a").Return(current, nil).Once()
		gw.On("FetchShipmentStatus", mock.Anything, "a").Return(fetched, nil).Once()
		gw.On("SetOrderStatus", mock.Anything, "a", orderapi.StatusChange{
			Status:          order.OrderStatusCancelled,
			Reason:          order.ReasonCancelledByCarrier,
			ExpectedVersion: 2,
		}).Return(nil).Once()

		out, err := svc.RefreshOrder(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, reconciliation.ResultUpdated, out.Result)
		assert.Equal(t, order.ReasonCancelledByCarrier, out.Reason)
		assert.Equal(t, []string{"a"}, views.Calls())
		gw.AssertExpectations(t)
	})

	t.Run("order without shipment", func(t *testing.T) {
		gw := new(MockOrderGateway)
		svc := newTestService(gw, nil)
		gw.On("GetOrder", mock.Anything, "m").Return(manualOrder("m", order.OrderStatusPending, 1), nil).Once()

		_, err := svc.RefreshOrder(context.Background(), "m")
		assert.ErrorIs(t, err, order.ErrNoShipment)
	})

	t.Run("fetch failure is returned", func(t *testing.T) {
		gw := new(MockOrderGateway)
		svc := newTestService(gw, nil)
		gw.On("GetOrder", mock.Anything, "a").
			Return(carrierOrder("a", order.OrderStatusShipped, shipping.CarrierPicked, 1), nil).Once()
		gw.On("FetchShipmentStatus", mock.Anything, "a").
			Return(nil, &orderapi.NotFoundError{ShippingAPIError: apiError("a", orderapi.OpFetchShipmentStatus, 404, "no shipment")}).Once()

		out, err := svc.RefreshOrder(context.Background(), "a")
		require.Error(t, err)
		assert.ErrorIs(t, err, orderapi.ErrNotFound)
		require.NotNil(t, out)
		assert.True(t, out.FetchFailed)
	})
}

// =============================================================================
// Terminal and stale carrier codes
// =============================================================================

func TestRefreshOrder_TerminalOrderIsLeftAlone(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, &recordingInvalidator{})

	cancelled := carrierOrder("o1", order.OrderStatusCancelled, shipping.CarrierReadyToPick, 3)
	gw.On("GetOrder", mock.Anything, "o1").Return(cancelled, nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "o1").Return(cancelled, nil).Once()

	out, err := svc.RefreshOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.ResultUnchanged, out.Result)
	assert.Equal(t, order.OrderStatusCancelled, out.Previous)
	assert.Empty(t, out.Target)
	gw.AssertNotCalled(t, "SetOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunBatch_OrderCancelledSinceListingIsLeftAlone(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, nil)

	listed := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	fetched := carrierOrder("a", order.OrderStatusCancelled, shipping.CarrierDelivered, 2)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(listed), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(fetched, nil).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)

	assert.Zero(t, report.Updated)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, order.OrderStatusCancelled, report.Outcomes[0].Previous)
	gw.AssertNotCalled(t, "SetOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunBatch_StaleCodeDoesNotMoveOrderBack(t *testing.T) {
	gw := new(MockOrderGateway)
	svc := newTestService(gw, nil)

	o := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierReadyToPick, 1)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(o), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(o, nil).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, reconciliation.ResultUnchanged, report.Outcomes[0].Result)
	gw.AssertNotCalled(t, "SetOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunBatch_CarrierMoveWithoutStatusChangeInvalidatesViews(t *testing.T) {
	gw := new(MockOrderGateway)
	views := &recordingInvalidator{}
	svc := newTestService(gw, views)

	listed := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierPicking, 1)
	fetched := carrierOrder("a", order.OrderStatusShipped, shipping.CarrierDelivering, 1)
	gw.On("ListOrders", mock.Anything, firstPage).Return(singlePage(listed), nil).Once()
	gw.On("FetchShipmentStatus", mock.Anything, "a").Return(fetched, nil).Once()

	report, err := svc.RunBatch(context.Background(), reconciliation.TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, reconciliation.ResultUnchanged, report.Outcomes[0].Result)
	assert.Equal(t, []string{"a"}, views.Calls())
	gw.AssertNotCalled(t, "SetOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}
