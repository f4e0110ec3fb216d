package orderapi

import (
	"fmt"
	"regexp"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopspring/decimal"
)

// legacyCarrierTag matches the bracketed marker older orders carry at the
// start of their note when they need a carrier shipment
var legacyCarrierTag = regexp.MustCompile(`^\s*\[[A-Za-z0-9_ -]+\]`)

type wireShipment struct {
	OrderCode            string           `json:"orderCode"`
	StatusCode           string           `json:"statusCode"`
	StatusName           string           `json:"statusName"`
	ExpectedDeliveryTime *time.Time       `json:"expectedDeliveryTime"`
	Fee                  *decimal.Decimal `json:"fee"`
}

type wireItem struct {
	ProductID string           `json:"productId"`
	VariantID string           `json:"variantId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

type wireOrder struct {
	ID                string        `json:"id"`
	MongoID           string        `json:"_id"`
	Status            string        `json:"status"`
	PaymentStatus     string        `json:"paymentStatus"`
	FulfillmentMethod string        `json:"fulfillmentMethod"`
	Note              string        `json:"note"`
	Shipping          *wireShipment `json:"shipping"`
	Items             []wireItem    `json:"items"`
	Version           *int          `json:"version"`
	LegacyVersion     *int          `json:"__v"`
	UpdatedAt         *time.Time    `json:"updatedAt"`
}

func (w *wireOrder) id() string {
	if w.ID != "" {
		return w.ID
	}
	return w.MongoID
}

// toDomain maps the wire record onto order.Order. Unknown status strings
// are kept as-is so the presentation layer can render them as Unknown.
func (w *wireOrder) toDomain() *order.Order {
	o := &order.Order{
		ID:                w.id(),
		Status:            order.OrderStatus(w.Status),
		PaymentStatus:     order.PaymentStatus(w.PaymentStatus),
		FulfillmentMethod: fulfillmentOf(w.FulfillmentMethod, w.Note),
		Note:              w.Note,
	}
	switch {
	case w.Version != nil:
		o.Version = *w.Version
	case w.LegacyVersion != nil:
		o.Version = *w.LegacyVersion
	}
	if w.UpdatedAt != nil {
		o.UpdatedAt = *w.UpdatedAt
	}
	if s := w.Shipping; s != nil {
		o.Shipping = &shipping.Shipment{
			OrderCode:            s.OrderCode,
			StatusCode:           shipping.CarrierStatus(s.StatusCode),
			StatusName:           s.StatusName,
			ExpectedDeliveryTime: s.ExpectedDeliveryTime,
		}
		if s.Fee != nil {
			o.Shipping.Fee = *s.Fee
		}
	}
	for _, it := range w.Items {
		item := order.Item{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		}
		if it.UnitPrice != nil {
			item.UnitPrice = *it.UnitPrice
		}
		o.Items = append(o.Items, item)
	}
	return o
}

// fulfillmentOf prefers the explicit field and only falls back to the
// note tag for records written before the field existed
func fulfillmentOf(method, note string) order.FulfillmentMethod {
	if m := order.FulfillmentMethod(method); m.IsValid() {
		return m
	}
	if legacyCarrierTag.MatchString(note) {
		return order.FulfillmentCarrier
	}
	return order.FulfillmentManual
}

// NormalizeOrderEnvelope decodes a single order from any of the shapes
// the backend returns: {order:{...}}, {data:{order:{...}}}, {data:{...}}
// or a raw order.
func NormalizeOrderEnvelope(body []byte) (*order.Order, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	candidates := make([]json.RawMessage, 0, 4)
	if nested, ok := top["order"]; ok {
		candidates = append(candidates, nested)
	}
	if data, ok := top["data"]; ok {
		var inner map[string]json.RawMessage
		if json.Unmarshal(data, &inner) == nil {
			if nested, ok := inner["order"]; ok {
				candidates = append(candidates, nested)
			}
		}
		candidates = append(candidates, data)
	}
	candidates = append(candidates, body)

	for _, raw := range candidates {
		var w wireOrder
		if err := json.Unmarshal(raw, &w); err != nil {
			continue
		}
		if w.id() != "" {
			return w.toDomain(), nil
		}
	}
	return nil, fmt.Errorf("%w: no order object with an id", ErrInvalidResponse)
}

// OrderPage is one page of ListOrders
type OrderPage struct {
	Orders []*order.Order
	Total  int
	Page   int
	Limit  int
}

type wireOrderList struct {
	Orders []wireOrder `json:"orders"`
	Total  *int        `json:"total"`
}

// NormalizeOrderListEnvelope decodes a page of orders from
// {data:{orders,total}}, {data:[...]} or a bare array
func NormalizeOrderListEnvelope(body []byte) (*OrderPage, error) {
	var wires []wireOrder
	total := -1

	var top struct {
		Data json.RawMessage `json:"data"`
	}
	switch {
	case json.Unmarshal(body, &wires) == nil:
	case json.Unmarshal(body, &top) == nil && len(top.Data) > 0:
		if err := json.Unmarshal(top.Data, &wires); err != nil {
			var list wireOrderList
			if err := json.Unmarshal(top.Data, &list); err != nil || list.Orders == nil {
				return nil, fmt.Errorf("%w: unrecognised order list", ErrInvalidResponse)
			}
			wires = list.Orders
			if list.Total != nil {
				total = *list.Total
			}
		}
	default:
		return nil, fmt.Errorf("%w: unrecognised order list", ErrInvalidResponse)
	}

	page := &OrderPage{Orders: make([]*order.Order, 0, len(wires))}
	for i := range wires {
		if wires[i].id() == "" {
			continue
		}
		page.Orders = append(page.Orders, wires[i].toDomain())
	}
	if total < 0 {
		total = len(page.Orders)
	}
	page.Total = total
	return page, nil
}

// ShipmentResult is returned by CreateShipment
type ShipmentResult struct {
	OrderCode            string
	ExpectedDeliveryTime *time.Time
	Fee                  decimal.Decimal
}

// decodeShipmentResult reads the carrier order code from {data:{...}} or
// a raw object
func decodeShipmentResult(body []byte) (*ShipmentResult, error) {
	var env struct {
		Data *wireShipment `json:"data"`
	}
	var s *wireShipment
	if json.Unmarshal(body, &env) == nil && env.Data != nil && env.Data.OrderCode != "" {
		s = env.Data
	} else {
		var raw wireShipment
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		s = &raw
	}
	if s.OrderCode == "" {
		return nil, fmt.Errorf("%w: missing carrier order code", ErrInvalidResponse)
	}
	res := &ShipmentResult{OrderCode: s.OrderCode, ExpectedDeliveryTime: s.ExpectedDeliveryTime}
	if s.Fee != nil {
		res.Fee = *s.Fee
	}
	return res, nil
}

// errorMessage extracts a readable message from an error body:
// {message}, {error:{message}} or {error:"..."}, else the raw text
func errorMessage(body []byte) string {
	var env struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if len(env.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var s string
			if json.Unmarshal(env.Error, &s) == nil && s != "" {
				return s
			}
		}
	}
	const maxRaw = 512
	if len(body) > maxRaw {
		return string(body[:maxRaw])
	}
	return string(body)
}
