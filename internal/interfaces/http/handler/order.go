package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/application/reconcile"
	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
	"github.com/shopadmin/backend/internal/interfaces/http/middleware"
)

// OrderReader serves the cached order views
type OrderReader interface {
	List(ctx context.Context, q orderapi.ListQuery) (*orderapi.OrderPage, error)
	Get(ctx context.Context, orderID string) (*order.Order, error)
}

// OrderMutator applies admin changes to orders and their shipments
type OrderMutator interface {
	ChangeStatus(ctx context.Context, cmd reconcile.ChangeStatusCommand) (*reconcile.ChangeStatusResult, error)
	ForceCancel(ctx context.Context, orderID, reason string) error
	CreateShipment(ctx context.Context, orderID string) (*orderapi.ShipmentResult, error)
	CancelShipment(ctx context.Context, orderID, reason string) error
	OverrideCarrierStatus(ctx context.Context, orderID string, code shipping.CarrierStatus) (*reconciliation.Outcome, error)
}

// OrderRefresher reconciles a single order on demand
type OrderRefresher interface {
	RefreshOrder(ctx context.Context, orderID string) (*reconciliation.Outcome, error)
}

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	orders    OrderReader
	mutator   OrderMutator
	refresher OrderRefresher
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderReader, mutator OrderMutator, refresher OrderRefresher) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		mutator:   mutator,
		refresher: refresher,
	}
}

// List godoc
// @ID           listOrders
// @Summary      List orders
// @Description  One page of orders with display labels and the statuses an admin may pick next
// @Tags         orders
// @Produce      json
// @Param        page   query  int     false  "Page number"  default(1)
// @Param        limit  query  int     false  "Page size"    default(20)  maximum(100)
// @Param        status query  string  false  "Order status filter"
// @Success      200 {object} dto.Response{data=[]dto.OrderResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var query dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.orders.List(c.Request.Context(), query.ToListQuery())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.ToOrderResponses(page.Orders), int64(page.Total), page.Page, page.Limit)
}

// Get godoc
// @ID           getOrder
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200 {object} dto.Response{data=dto.OrderResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	h.respondOrder(c, id)
}

// ChangeStatus godoc
// @ID           changeOrderStatus
// @Summary      Change an order status by hand
// @Description  Rejected with 422 when the order follows a carrier shipment or the target is not a legal next status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Order ID"
// @Param        request  body  dto.ChangeStatusRequest  true  "Target status"
// @Success      200 {object} dto.Response{data=reconcile.ChangeStatusResult}
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.mutator.ChangeStatus(c.Request.Context(), reconcile.ChangeStatusCommand{
		OrderID:         id,
		Status:          order.OrderStatus(req.Status),
		Reason:          req.Reason,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Force-cancel an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id       path  string                  true  "Order ID"
// @Param        request  body  dto.CancelOrderRequest  true  "Cancellation reason"
// @Success      200 {object} dto.Response{data=dto.OrderResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.mutator.ForceCancel(c.Request.Context(), id, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}

	h.respondOrder(c, id)
}

// Refresh godoc
// @ID           refreshOrder
// @Summary      Reconcile one order with its carrier now
// @Tags         orders
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200 {object} dto.Response{data=reconciliation.Outcome}
// @Security     BearerAuth
// @Router       /orders/{id}/refresh [post]
func (h *OrderHandler) Refresh(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	outcome, err := h.refresher.RefreshOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, outcome)
}

// CreateShipment godoc
// @ID           createShipment
// @Summary      Create the carrier shipment of an order
// @Tags         orders
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      201 {object} dto.Response{data=dto.ShipmentCreatedResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/shipment [post]
func (h *OrderHandler) CreateShipment(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	result, err := h.mutator.CreateShipment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ShipmentCreatedResponse{
		OrderID:              id,
		OrderCode:            result.OrderCode,
		ExpectedDeliveryTime: result.ExpectedDeliveryTime,
		Fee:                  result.Fee,
	})
}

// CancelShipment godoc
// @ID           cancelShipment
// @Summary      Cancel the carrier shipment of an order
// @Description  Only allowed before the carrier picks the parcel up
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true   "Order ID"
// @Param        request  body  dto.CancelShipmentRequest  false  "Cancellation reason"
// @Success      200 {object} dto.Response{data=dto.OrderResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id}/shipment/cancel [post]
func (h *OrderHandler) CancelShipment(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req dto.CancelShipmentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	if err := h.mutator.CancelShipment(c.Request.Context(), id, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}

	h.respondOrder(c, id)
}

// OverrideCarrierStatus godoc
// @ID           overrideCarrierStatus
// @Summary      Simulate a carrier status update
// @Description  Sets the carrier status code and reconciles the order right away
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id       path  string                    true  "Order ID"
// @Param        request  body  dto.CarrierStatusRequest  true  "Carrier status code"
// @Success      200 {object} dto.Response{data=reconciliation.Outcome}
// @Security     BearerAuth
// @Router       /orders/{id}/carrier-status [patch]
func (h *OrderHandler) OverrideCarrierStatus(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req dto.CarrierStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	outcome, err := h.mutator.OverrideCarrierStatus(c.Request.Context(), id, shipping.CarrierStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, outcome)
}

func (h *OrderHandler) bindID(c *gin.Context) (string, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return "", false
	}
	return req.ID, true
}

// respondOrder renders the current view of an order. After a mutation the
// cache entry is gone, so this reads through to the backend.
func (h *OrderHandler) respondOrder(c *gin.Context, id string) {
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToOrderResponse(o))
}
