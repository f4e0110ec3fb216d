package order

const (
	// UnknownLabel is shown for codes outside the enumeration
	UnknownLabel = "Unknown"
	// UnknownColor is the tag colour for codes outside the enumeration
	UnknownColor = "default"
)

type display struct {
	label string
	color string
}

var statusDisplay = map[OrderStatus]display{
	OrderStatusPending:    {"Pending", "gold"},
	OrderStatusConfirmed:  {"Confirmed", "blue"},
	OrderStatusProcessing: {"Processing", "cyan"},
	OrderStatusShipped:    {"Shipped", "purple"},
	OrderStatusDelivered:  {"Delivered", "green"},
	OrderStatusCompleted:  {"Completed", "success"},
	OrderStatusCancelled:  {"Cancelled", "red"},
	OrderStatusRefunded:   {"Refunded", "magenta"},
}

var paymentDisplay = map[PaymentStatus]display{
	PaymentStatusUnpaid:    {"Unpaid", "default"},
	PaymentStatusPending:   {"Awaiting payment", "gold"},
	PaymentStatusPaid:      {"Paid", "green"},
	PaymentStatusFailed:    {"Payment failed", "red"},
	PaymentStatusRefunded:  {"Refunded", "magenta"},
	PaymentStatusCancelled: {"Cancelled", "volcano"},
}

// LabelFor returns the human-readable label of an order status
func LabelFor(s OrderStatus) string {
	if d, ok := statusDisplay[s]; ok {
		return d.label
	}
	return UnknownLabel
}

// ColorFor returns the tag colour of an order status
func ColorFor(s OrderStatus) string {
	if d, ok := statusDisplay[s]; ok {
		return d.color
	}
	return UnknownColor
}

// PaymentLabelFor returns the human-readable label of a payment status
func PaymentLabelFor(s PaymentStatus) string {
	if d, ok := paymentDisplay[s]; ok {
		return d.label
	}
	return UnknownLabel
}

// PaymentColorFor returns the tag colour of a payment status
func PaymentColorFor(s PaymentStatus) string {
	if d, ok := paymentDisplay[s]; ok {
		return d.color
	}
	return UnknownColor
}
