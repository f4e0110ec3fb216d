package reconcile

import (
	"context"
	"fmt"

	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/domain/shipping"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"go.uber.org/zap"
)

// ChangeStatusCommand is a manual status change requested by an admin
type ChangeStatusCommand struct {
	OrderID string
	Status  order.OrderStatus
	Reason  string
	// ExpectedVersion is the version the admin saw; 0 skips the check
	ExpectedVersion int
}

// ChangeStatusResult reports what a manual change did
type ChangeStatusResult struct {
	OrderID  string            `json:"order_id"`
	Previous order.OrderStatus `json:"previous"`
	Current  order.OrderStatus `json:"current"`
	Changed  bool              `json:"changed"`
}

// OrderRefresher re-reads one order from the carrier
type OrderRefresher interface {
	RefreshOrder(ctx context.Context, orderID string) (*reconciliation.Outcome, error)
}

// StatusService applies admin-initiated order changes after checking them
// against the transition gate
type StatusService struct {
	gateway   OrderGateway
	views     ViewInvalidator
	refresher OrderRefresher
	logger    *zap.Logger
}

// NewStatusService creates a new status service
func NewStatusService(gateway OrderGateway, views ViewInvalidator, refresher OrderRefresher, logger *zap.Logger) *StatusService {
	return &StatusService{
		gateway:   gateway,
		views:     views,
		refresher: refresher,
		logger:    logger,
	}
}

// ChangeStatus moves an order by hand. Orders with a carrier shipment are
// locked to reconciliation.
func (s *StatusService) ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) (*ChangeStatusResult, error) {
	if !cmd.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", order.ErrInvalidOrderStatus, cmd.Status)
	}
	defer s.invalidate(ctx, cmd.OrderID)

	o, err := s.gateway.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ExpectedVersion > 0 && o.Version > 0 && cmd.ExpectedVersion != o.Version {
		return nil, orderapi.NewConflictError(o.ID, orderapi.OpSetOrderStatus,
			fmt.Sprintf("order is at version %d, expected %d", o.Version, cmd.ExpectedVersion))
	}
	if o.HasShipment() {
		return nil, order.ErrShipmentLocked
	}
	if !order.CanTransition(o.Status, cmd.Status, false) {
		return nil, order.ErrTransitionNotAllowed
	}

	result := &ChangeStatusResult{OrderID: o.ID, Previous: o.Status, Current: o.Status}
	if cmd.Status == o.Status {
		return result, nil
	}

	version := cmd.ExpectedVersion
	if version == 0 {
		version = o.Version
	}
	if err := s.gateway.SetOrderStatus(ctx, o.ID, orderapi.StatusChange{
		Status:          cmd.Status,
		Reason:          cmd.Reason,
		ExpectedVersion: version,
	}); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Order status changed manually",
		zap.String("order_id", o.ID),
		zap.String("from", o.Status.String()),
		zap.String("to", cmd.Status.String()))
	result.Current = cmd.Status
	result.Changed = true
	return result, nil
}

// ForceCancel cancels an order on admin request. With a carrier shipment
// this is only possible before pickup; the shipment is cancelled first.
func (s *StatusService) ForceCancel(ctx context.Context, orderID, reason string) error {
	defer s.invalidate(ctx, orderID)

	o, err := s.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if o.HasShipment() {
		code := o.CarrierStatus()
		if !code.IsBeforePickup() {
			return order.ErrShipmentPickedUp
		}
		if !order.IsCancellable(o.Status) {
			return order.ErrNotCancellable
		}
		if err := s.gateway.CancelShipment(ctx, orderID, reason); err != nil {
			return err
		}
		logger.L(ctx).Info("Carrier shipment cancelled before pickup",
			zap.String("order_id", orderID),
			zap.String("order_code", o.Shipping.OrderCode))
	} else if !order.IsCancellable(o.Status) {
		return order.ErrNotCancellable
	}

	if err := s.gateway.CancelOrder(ctx, orderID, reason); err != nil {
		return err
	}
	logger.L(ctx).Info("Order cancelled by admin",
		zap.String("order_id", orderID),
		zap.String("previous_status", o.Status.String()))
	return nil
}

// CreateShipment books a carrier shipment for a carrier-fulfilled order
func (s *StatusService) CreateShipment(ctx context.Context, orderID string) (*orderapi.ShipmentResult, error) {
	o, err := s.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case o.FulfillmentMethod != order.FulfillmentCarrier:
		return nil, order.ErrNotCarrierFulfilled
	case o.HasShipment():
		return nil, order.ErrShipmentExists
	case o.Status != order.OrderStatusConfirmed && o.Status != order.OrderStatusProcessing:
		return nil, order.ErrNotReadyToShip
	}

	result, err := s.gateway.CreateShipment(ctx, orderID)
	s.invalidate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Carrier shipment created",
		zap.String("order_id", orderID),
		zap.String("order_code", result.OrderCode))
	return result, nil
}

// CancelShipment cancels the carrier shipment of an order
func (s *StatusService) CancelShipment(ctx context.Context, orderID, reason string) error {
	err := s.gateway.CancelShipment(ctx, orderID, reason)
	s.invalidate(ctx, orderID)
	return err
}

// OverrideCarrierStatus forces a carrier status, as the carrier webhook
// would, then refreshes the order so its status follows the mapping
func (s *StatusService) OverrideCarrierStatus(ctx context.Context, orderID string, code shipping.CarrierStatus) (*reconciliation.Outcome, error) {
	if !code.IsValid() {
		return nil, fmt.Errorf("%w: %q", shipping.ErrInvalidCarrierStatus, code)
	}
	err := s.gateway.OverrideCarrierStatus(ctx, orderID, code)
	s.invalidate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Carrier status overridden",
		zap.String("order_id", orderID),
		zap.String("carrier_status", code.String()))
	return s.refresher.RefreshOrder(ctx, orderID)
}

func (s *StatusService) invalidate(ctx context.Context, orderID string) {
	if s.views == nil {
		return
	}
	if err := s.views.InvalidateOrder(ctx, orderID); err != nil {
		s.logger.Warn("Failed to invalidate order view", zap.String("order_id", orderID), zap.Error(err))
	}
}
