// Package shipping holds the carrier-side vocabulary mirrored on orders.
package shipping

import (
	"fmt"
	"time"

	"github.com/shopadmin/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CarrierStatus is a shipment status code owned by the external carrier
type CarrierStatus string

const (
	CarrierReadyToPick     CarrierStatus = "ready_to_pick"
	CarrierPicking         CarrierStatus = "picking"
	CarrierPicked          CarrierStatus = "picked"
	CarrierDelivering      CarrierStatus = "delivering"
	CarrierDelivered       CarrierStatus = "delivered"
	CarrierDeliveryFail    CarrierStatus = "delivery_fail"
	CarrierWaitingToReturn CarrierStatus = "waiting_to_return"
	CarrierReturn          CarrierStatus = "return"
	CarrierReturned        CarrierStatus = "returned"
	CarrierCancel          CarrierStatus = "cancel"
	CarrierException       CarrierStatus = "exception"
)

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

// carrierStatuses keeps the enumeration in the carrier's lifecycle order
var carrierStatuses = []CarrierStatus{
	CarrierReadyToPick,
	CarrierPicking,
	CarrierPicked,
	CarrierDelivering,
	CarrierDelivered,
	CarrierDeliveryFail,
	CarrierWaitingToReturn,
	CarrierReturn,
	CarrierReturned,
	CarrierCancel,
	CarrierException,
}

var carrierDisplay = map[CarrierStatus]display{
	CarrierReadyToPick:     {"Ready to pick", "blue"},
	CarrierPicking:         {"Picking", "cyan"},
	CarrierPicked:          {"Picked", "geekblue"},
	CarrierDelivering:      {"Delivering", "purple"},
	CarrierDelivered:       {"Delivered", "green"},
	CarrierDeliveryFail:    {"Delivery failed", "red"},
	CarrierWaitingToReturn: {"Waiting to return", "orange"},
	CarrierReturn:          {"Returning", "volcano"},
	CarrierReturned:        {"Returned", "magenta"},
	CarrierCancel:          {"Cancelled", "red"},
	CarrierException:       {"Exception", "warning"},
}

// CarrierStatuses returns every carrier status code
func CarrierStatuses() []CarrierStatus {
	statuses := make([]CarrierStatus, len(carrierStatuses))
	copy(statuses, carrierStatuses)
	return statuses
}

// ErrInvalidCarrierStatus is returned when a code is outside the carrier enumeration
var ErrInvalidCarrierStatus = shared.NewDomainError(shared.CodeInvalidInput, "Invalid carrier status")

// ParseCarrierStatus validates a carrier status code taken from input
func ParseCarrierStatus(raw string) (CarrierStatus, error) {
	s := CarrierStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCarrierStatus, raw)
	}
	return s, nil
}

// IsValid checks if the code belongs to the carrier enumeration
func (s CarrierStatus) IsValid() bool {
	_, ok := carrierDisplay[s]
	return ok
}

// IsBeforePickup reports whether the parcel has not left the shop yet.
// An empty code means the carrier has not reported anything so far.
func (s CarrierStatus) IsBeforePickup() bool {
	return s == "" || s == CarrierReadyToPick
}

// String returns the string representation of CarrierStatus
func (s CarrierStatus) String() string {
	return string(s)
}

// LabelFor returns the human-readable label of a carrier status code
func LabelFor(s CarrierStatus) string {
	if d, ok := carrierDisplay[s]; ok {
		return d.label
	}
	return UnknownLabel
}

// ColorFor returns the tag colour of a carrier status code
func ColorFor(s CarrierStatus) string {
	if d, ok := carrierDisplay[s]; ok {
		return d.color
	}
	return UnknownColor
}

// Shipment is the carrier shipment record cached on an order
type Shipment struct {
	OrderCode            string
	StatusCode           CarrierStatus
	StatusName           string
	ExpectedDeliveryTime *time.Time
	Fee                  decimal.Decimal
}

// HasOrderCode reports whether the carrier has issued an order code
func (s *Shipment) HasOrderCode() bool {
	return s != nil && s.OrderCode != ""
}
