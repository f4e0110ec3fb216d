package dto

import (
	"time"

	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/shopspring/decimal"
)

// StatusOption is an enumeration value with its display label and tag colour
type StatusOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// OrderResponse is one row of the order list. StatusLocked is set when the
// carrier shipment drives the status.
type OrderResponse struct {
	ID                string            `json:"id"`
	Status            StatusOption      `json:"status"`
	PaymentStatus     StatusOption      `json:"payment_status"`
	FulfillmentMethod string            `json:"fulfillment_method"`
	Shipping          *ShipmentResponse `json:"shipping,omitempty"`
	Note              string            `json:"note,omitempty"`
	Items             []ItemResponse    `json:"items"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	Version           int               `json:"version"`
	UpdatedAt         time.Time         `json:"updated_at"`
	StatusLocked      bool              `json:"status_locked"`
	LegalNextStatuses []StatusOption    `json:"legal_next_statuses"`
}

// ShipmentResponse is the carrier shipment attached to an order
type ShipmentResponse struct {
	OrderCode            string          `json:"order_code,omitempty"`
	Status               StatusOption    `json:"status"`
	StatusName           string          `json:"status_name,omitempty"`
	ExpectedDeliveryTime *time.Time      `json:"expected_delivery_time,omitempty"`
	Fee                  decimal.Decimal `json:"fee"`
}

// ItemResponse is a read-only order line
type ItemResponse struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// ShipmentCreatedResponse is returned after a carrier shipment was created
type ShipmentCreatedResponse struct {
	OrderID              string          `json:"order_id"`
	OrderCode            string          `json:"order_code"`
	ExpectedDeliveryTime *time.Time      `json:"expected_delivery_time,omitempty"`
	Fee                  decimal.Decimal `json:"fee"`
}

// TaxonomyResponse lists every enumeration the console renders
type TaxonomyResponse struct {
	OrderStatuses      []StatusOption `json:"order_statuses"`
	ForwardFlow        []string       `json:"forward_flow"`
	PaymentStatuses    []StatusOption `json:"payment_statuses"`
	CarrierStatuses    []StatusOption `json:"carrier_statuses"`
	FulfillmentMethods []string       `json:"fulfillment_methods"`
}

// ListOrdersQuery holds the order list filters
type ListOrdersQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,order_status"`
}

// ToListQuery converts the filters, applying defaults
func (q ListOrdersQuery) ToListQuery() orderapi.ListQuery {
	lq := orderapi.ListQuery{Page: q.Page, Limit: q.Limit, Status: order.OrderStatus(q.Status)}
	if lq.Page == 0 {
		lq.Page = 1
	}
	if lq.Limit == 0 {
		lq.Limit = 20
	}
	return lq
}

// ChangeStatusRequest is a manual status change
type ChangeStatusRequest struct {
	Status  string `json:"status" binding:"required,order_status"`
	Reason  string `json:"reason" binding:"max=500"`
	Version int    `json:"version" binding:"omitempty,min=1"`
}

// CancelOrderRequest is an admin-forced cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CancelShipmentRequest cancels the carrier shipment of an order
type CancelShipmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CarrierStatusRequest overrides the carrier status code of a shipment
type CarrierStatusRequest struct {
	Status string `json:"status" binding:"required,carrier_status"`
}

// OrderStatusOption renders an order status
func OrderStatusOption(s order.OrderStatus) StatusOption {
	return StatusOption{Value: s.String(), Label: order.LabelFor(s), Color: order.ColorFor(s)}
}

// PaymentStatusOption renders a payment status
func PaymentStatusOption(s order.PaymentStatus) StatusOption {
	return StatusOption{Value: s.String(), Label: order.PaymentLabelFor(s), Color: order.PaymentColorFor(s)}
}

// CarrierStatusOption renders a carrier status code
func CarrierStatusOption(s shipping.CarrierStatus) StatusOption {
	return StatusOption{Value: s.String(), Label: shipping.LabelFor(s), Color: shipping.ColorFor(s)}
}

// ToOrderResponse renders an order row
func ToOrderResponse(o *order.Order) OrderResponse {
	next := o.LegalNextStatuses()
	resp := OrderResponse{
		ID:                o.ID,
		Status:            OrderStatusOption(o.Status),
		PaymentStatus:     PaymentStatusOption(o.PaymentStatus),
		FulfillmentMethod: o.FulfillmentMethod.String(),
		Note:              o.Note,
		Items:             make([]ItemResponse, 0, len(o.Items)),
		TotalAmount:       o.TotalAmount(),
		Version:           o.Version,
		UpdatedAt:         o.UpdatedAt,
		StatusLocked:      o.HasShipment(),
		LegalNextStatuses: make([]StatusOption, 0, len(next)),
	}
	if o.Shipping != nil {
		resp.Shipping = &ShipmentResponse{
			OrderCode:            o.Shipping.OrderCode,
			Status:               CarrierStatusOption(o.Shipping.StatusCode),
			StatusName:           o.Shipping.StatusName,
			ExpectedDeliveryTime: o.Shipping.ExpectedDeliveryTime,
			Fee:                  o.Shipping.Fee,
		}
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, ItemResponse{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Amount:    it.Amount(),
		})
	}
	for _, s := range next {
		resp.LegalNextStatuses = append(resp.LegalNextStatuses, OrderStatusOption(s))
	}
	return resp
}

// ToOrderResponses renders a page of orders
func ToOrderResponses(orders []*order.Order) []OrderResponse {
	rows := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, ToOrderResponse(o))
	}
	return rows
}

// BuildTaxonomy renders every enumeration
func BuildTaxonomy() TaxonomyResponse {
	t := TaxonomyResponse{
		FulfillmentMethods: []string{order.FulfillmentManual.String(), order.FulfillmentCarrier.String()},
	}
	for _, s := range order.OrderStatuses() {
		t.OrderStatuses = append(t.OrderStatuses, OrderStatusOption(s))
	}
	for _, s := range order.ForwardFlow() {
		t.ForwardFlow = append(t.ForwardFlow, s.String())
	}
	for _, s := range order.PaymentStatuses() {
		t.PaymentStatuses = append(t.PaymentStatuses, PaymentStatusOption(s))
	}
	for _, s := range shipping.CarrierStatuses() {
		t.CarrierStatuses = append(t.CarrierStatuses, CarrierStatusOption(s))
	}
	return t
}
