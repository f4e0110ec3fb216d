package order

// cancellable lists the statuses an admin may still cancel from
var cancellable = map[OrderStatus]bool{
	OrderStatusPending:    true,
	OrderStatusConfirmed:  true,
	OrderStatusProcessing: true,
}

// LegalNextStatuses returns the statuses an admin may pick by hand.
//
// Orders with a carrier shipment are locked: their status follows the
// carrier through reconciliation only. Terminal and unknown statuses
// yield an empty set. Otherwise the result holds every forward-flow
// status at or after the current one, plus cancelled while the order
// has not shipped yet and refunded once it is delivered.
func LegalNextStatuses(current OrderStatus, hasShipment bool) []OrderStatus {
	if hasShipment || current.IsTerminal() {
		return []OrderStatus{}
	}
	pos := Position(current)
	if pos < 0 {
		return []OrderStatus{}
	}

	next := make([]OrderStatus, 0, len(forwardFlow)-pos+1)
	next = append(next, forwardFlow[pos:]...)
	if cancellable[current] {
		next = append(next, OrderStatusCancelled)
	}
	// Refund is offered from delivered only. Completed orders are
	// terminal and are not refundable from here.
	if current == OrderStatusDelivered {
		next = append(next, OrderStatusRefunded)
	}
	return next
}

// CanTransition reports whether target is among the legal next statuses
func CanTransition(current, target OrderStatus, hasShipment bool) bool {
	for _, s := range LegalNextStatuses(current, hasShipment) {
		if s == target {
			return true
		}
	}
	return false
}

// IsCancellable reports whether an order in status s may still be cancelled
func IsCancellable(s OrderStatus) bool {
	return cancellable[s]
}
