package order

import "github.com/shopadmin/backend/internal/domain/shared"

// Order rule violations surfaced to the admin
var (
	ErrTransitionNotAllowed = shared.NewDomainError(shared.CodeInvalidState, "Status transition is not allowed from the current status")
	ErrShipmentLocked       = shared.NewDomainError(shared.CodeInvalidState, "Order status follows the carrier shipment and cannot be changed manually")
	ErrShipmentPickedUp     = shared.NewDomainError(shared.CodeInvalidState, "Shipment was already picked up by the carrier")
	ErrNotCancellable       = shared.NewDomainError(shared.CodeInvalidState, "Order can no longer be cancelled")
	ErrShipmentExists       = shared.NewDomainError(shared.CodeInvalidState, "Order already has a carrier shipment")
	ErrNoShipment           = shared.NewDomainError(shared.CodeInvalidState, "Order has no carrier shipment")
	ErrNotCarrierFulfilled  = shared.NewDomainError(shared.CodeInvalidState, "Order is fulfilled manually and cannot be shipped through the carrier")
	ErrNotReadyToShip       = shared.NewDomainError(shared.CodeInvalidState, "Order must be confirmed or processing before a shipment is created")
	ErrVersionMismatch      = shared.NewDomainError(shared.CodeConcurrencyConflict, "Order was modified by another process")
)
