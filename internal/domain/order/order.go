// Package order models storefront orders as seen by the admin console:
// the status taxonomy, the carrier status mapping and the manual
// transition gate.
package order

import (
	"time"

	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopspring/decimal"
)

// Order is the admin-side view of a storefront order. The shop backend
// owns the record; this service only reads it and asks for mutations.
type Order struct {
	ID                string
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	FulfillmentMethod FulfillmentMethod
	Shipping          *shipping.Shipment
	Note              string
	Items             []Item
	Version           int
	UpdatedAt         time.Time
}

// Item is a read-only order line
type Item struct {
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Amount returns quantity * unit price
func (i Item) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// HasShipment reports whether a carrier shipment exists for the order
func (o *Order) HasShipment() bool {
	return o.Shipping.HasOrderCode()
}

// IsTerminal reports whether the order reached a terminal status
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// NeedsReconcile reports whether the order belongs to the reconciliation
// working set: a carrier shipment exists and the order is still moving
func (o *Order) NeedsReconcile() bool {
	return o.HasShipment() && !o.IsTerminal()
}

// CarrierStatus returns the cached carrier status code, or "" when no
// shipment exists
func (o *Order) CarrierStatus() shipping.CarrierStatus {
	if o.Shipping == nil {
		return ""
	}
	return o.Shipping.StatusCode
}

// TotalAmount sums all line amounts
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount())
	}
	return total
}

// LegalNextStatuses returns the manual transitions currently allowed
func (o *Order) LegalNextStatuses() []OrderStatus {
	return LegalNextStatuses(o.Status, o.HasShipment())
}
