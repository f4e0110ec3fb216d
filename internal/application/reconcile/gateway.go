// Package reconcile mirrors carrier shipment state onto shop orders and
// guards the manual status changes an admin may make.
package reconcile

import (
	"context"

	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
)

// OrderGateway is the shop backend surface used by the services.
// *orderapi.Client implements it.
type OrderGateway interface {
	ListOrders(ctx context.Context, q orderapi.ListQuery) (*orderapi.OrderPage, error)
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	FetchShipmentStatus(ctx context.Context, orderID string) (*order.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, change orderapi.StatusChange) error
	CancelOrder(ctx context.Context, orderID, reason string) error
	CreateShipment(ctx context.Context, orderID string) (*orderapi.ShipmentResult, error)
	CancelShipment(ctx context.Context, orderID, reason string) error
	OverrideCarrierStatus(ctx context.Context, orderID string, code shipping.CarrierStatus) error
}

// ViewInvalidator drops cached order views after a mutation attempt
type ViewInvalidator interface {
	InvalidateOrder(ctx context.Context, orderID string) error
}

var _ OrderGateway = (*orderapi.Client)(nil)
