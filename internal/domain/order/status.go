package order

import (
	"fmt"

	"github.com/shopadmin/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle status of a storefront order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// forwardFlow is the canonical ordering used by the transition gate.
// Cancelled and refunded are side exits and have no position.
var forwardFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
}

// ErrInvalidOrderStatus is returned when a status string is outside the enumeration
var ErrInvalidOrderStatus = shared.NewDomainError(shared.CodeInvalidInput, "Invalid order status")

// OrderStatuses returns every order status, forward flow first
func OrderStatuses() []OrderStatus {
	statuses := make([]OrderStatus, 0, len(forwardFlow)+2)
	statuses = append(statuses, forwardFlow...)
	return append(statuses, OrderStatusCancelled, OrderStatusRefunded)
}

// ForwardFlow returns the ordered forward flow pending → completed
func ForwardFlow() []OrderStatus {
	flow := make([]OrderStatus, len(forwardFlow))
	copy(flow, forwardFlow)
	return flow
}

// Position returns the index of s in the forward flow, or -1 when s is
// a side exit or unknown
func Position(s OrderStatus) int {
	for i, st := range forwardFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseOrderStatus converts a raw string into an OrderStatus
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, raw)
	}
	return s, nil
}

// IsValid checks if the status is a valid value
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// PaymentStatus is tracked independently of the order lifecycle
type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentStatuses returns every payment status
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusUnpaid,
		PaymentStatusPending,
		PaymentStatusPaid,
		PaymentStatusFailed,
		PaymentStatusRefunded,
		PaymentStatusCancelled,
	}
}

// IsValid checks if the payment status is a valid value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPending, PaymentStatusPaid,
		PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// FulfillmentMethod tells whether an order ships through the carrier
// integration or is fulfilled by hand
type FulfillmentMethod string

const (
	FulfillmentManual  FulfillmentMethod = "manual"
	FulfillmentCarrier FulfillmentMethod = "carrier"
)

// IsValid checks if the fulfillment method is a valid value
func (m FulfillmentMethod) IsValid() bool {
	return m == FulfillmentManual || m == FulfillmentCarrier
}

// String returns the string representation of FulfillmentMethod
func (m FulfillmentMethod) String() string {
	return string(m)
}
