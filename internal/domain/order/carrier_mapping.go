package order

import "github.com/shopadmin/backend/internal/domain/shipping"

const (
	ReasonCancelledByCarrier = "Cancelled by carrier"
	ReasonDeliveryFailed     = "Delivery failed or returned"
)

// MappingResult is the order status a carrier code calls for.
// Changes is false when the code must leave the order untouched.
type MappingResult struct {
	OrderStatus OrderStatus
	Reason      string
	Changes     bool
}

// carrierMapping is the only carrier → order status table. The bulk
// reconciliation, single-order refresh and manual override paths all
// resolve codes through MapCarrierStatus.
var carrierMapping = map[shipping.CarrierStatus]MappingResult{
	shipping.CarrierCancel:          {OrderStatus: OrderStatusCancelled, Reason: ReasonCancelledByCarrier, Changes: true},
	shipping.CarrierReadyToPick:     {OrderStatus: OrderStatusProcessing, Changes: true},
	shipping.CarrierPicking:         {OrderStatus: OrderStatusShipped, Changes: true},
	shipping.CarrierPicked:          {OrderStatus: OrderStatusShipped, Changes: true},
	shipping.CarrierDelivering:      {OrderStatus: OrderStatusShipped, Changes: true},
	shipping.CarrierDelivered:       {OrderStatus: OrderStatusDelivered, Changes: true},
	shipping.CarrierDeliveryFail:    {OrderStatus: OrderStatusCancelled, Reason: ReasonDeliveryFailed, Changes: true},
	shipping.CarrierWaitingToReturn: {OrderStatus: OrderStatusCancelled, Reason: ReasonDeliveryFailed, Changes: true},
	shipping.CarrierReturn:          {OrderStatus: OrderStatusCancelled, Reason: ReasonDeliveryFailed, Changes: true},
	shipping.CarrierReturned:        {OrderStatus: OrderStatusCancelled, Reason: ReasonDeliveryFailed, Changes: true},
	// exception has no entry so it never moves the order
}

// MapCarrierStatus translates a carrier status code into the order
// status it implies. Exception and unknown codes map to no change.
func MapCarrierStatus(code shipping.CarrierStatus) MappingResult {
	if r, ok := carrierMapping[code]; ok {
		return r
	}
	return MappingResult{}
}

// RequiresUpdate reports whether applying r to an order currently in
// status current would issue a mutation. Terminal orders never move, and
// a forward-flow target behind the current status is ignored so a stale
// carrier code cannot walk the order back.
func (r MappingResult) RequiresUpdate(current OrderStatus) bool {
	if !r.Changes || r.OrderStatus == current || current.IsTerminal() {
		return false
	}
	if target := Position(r.OrderStatus); target >= 0 && target < Position(current) {
		return false
	}
	return true
}
