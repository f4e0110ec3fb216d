package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxListPages bounds the working-set scan
const maxListPages = 1000

// Config tunes a reconciliation pass
type Config struct {
	// CallDelay is the minimum spacing between calls to the shop backend
	CallDelay time.Duration
	// PageSize is the page size used to build the working set
	PageSize int
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{CallDelay: time.Second, PageSize: 100}
}

// Service runs reconciliation passes. It is not safe for concurrent
// batches; the scheduler serializes them.
type Service struct {
	gateway OrderGateway
	views   ViewInvalidator
	cfg     Config
	metrics *telemetry.ReconcileMetrics
	logger  *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithMetrics records pass and order results
func WithMetrics(m *telemetry.ReconcileMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a reconciliation service
func NewService(gateway OrderGateway, views ViewInvalidator, cfg Config, logger *zap.Logger, opts ...ServiceOption) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	if cfg.CallDelay < 0 {
		cfg.CallDelay = 0
	}
	s := &Service{
		gateway: gateway,
		views:   views,
		cfg:     cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pacer spaces backend calls by the configured delay. The first Wait
// returns immediately.
type pacer func(ctx context.Context) error

func (s *Service) newPacer() pacer {
	if s.cfg.CallDelay <= 0 {
		return func(ctx context.Context) error { return ctx.Err() }
	}
	limiter := rate.NewLimiter(rate.Every(s.cfg.CallDelay), 1)
	return limiter.Wait
}

// RunBatch reconciles every order in the working set, one at a time.
//
// Per-order failures are recorded in the report and never stop the pass.
// An auth failure or a cancelled context aborts the remaining orders; the
// report is then marked failed and the cause is returned alongside it.
func (s *Service) RunBatch(ctx context.Context, trigger reconciliation.Trigger) (*reconciliation.Report, error) {
	report := reconciliation.NewReport(trigger)

	ctx, span := telemetry.StartSpan(ctx, "reconcile.batch", trace.SpanKindInternal,
		telemetry.AttrRunID.String(report.RunID.String()),
		telemetry.AttrTrigger.String(trigger.String()),
	)
	defer span.End()
	ctx, log := logger.WithRunID(ctx, s.logger, report.RunID.String())

	log.Info("Reconciliation started", zap.String("trigger", trigger.String()))

	pace := s.newPacer()
	working, err := s.workingSet(ctx, pace)
	if err != nil {
		return s.finish(ctx, span, log, report, 0, fmt.Errorf("failed to build working set: %w", err))
	}

	var abort error
	for _, o := range working {
		outcome, err := s.reconcileOne(ctx, o, pace)
		report.Add(outcome)
		s.metrics.RecordOrder(ctx, outcome.Result.String())
		if err != nil && isAbort(err) {
			abort = err
			log.Error("Reconciliation aborted",
				zap.String("order_id", o.ID),
				zap.Int("remaining", len(working)-report.Total),
				zap.Error(err))
			break
		}
	}

	return s.finish(ctx, span, log, report, len(working), abort)
}

func (s *Service) finish(ctx context.Context, span trace.Span, log *zap.Logger, report *reconciliation.Report, workingSet int, abort error) (*reconciliation.Report, error) {
	report.Complete(abort)
	s.metrics.RecordRun(ctx, report.Trigger.String(), report.Status.String(), report.Duration(), workingSet)

	span.SetAttributes(
		telemetry.AttrStatus.String(report.Status.String()),
		attribute.Int("reconcile.total", report.Total),
		attribute.Int("reconcile.updated", report.Updated),
		attribute.Int("reconcile.failed", report.Failed),
	)
	if abort != nil {
		telemetry.RecordError(span, abort)
		log.Error("Reconciliation failed", zap.Error(abort))
		return report, abort
	}
	span.SetStatus(codes.Ok, "")

	log.Info("Reconciliation completed",
		zap.String("status", report.Status.String()),
		zap.Int("total", report.Total),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration()),
	)
	return report, nil
}

// isAbort reports whether err must stop the whole pass rather than a
// single order
func isAbort(err error) bool {
	return errors.Is(err, orderapi.ErrAuth) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// workingSet pages through the order list and keeps orders that have a
// carrier shipment and are not terminal
func (s *Service) workingSet(ctx context.Context, pace pacer) ([]*order.Order, error) {
	var working []*order.Order
	seen := 0
	for page := 1; page <= maxListPages; page++ {
		if err := pace(ctx); err != nil {
			return nil, err
		}
		result, err := s.gateway.ListOrders(ctx, orderapi.ListQuery{Page: page, Limit: s.cfg.PageSize})
		if err != nil {
			return nil, err
		}
		for _, o := range result.Orders {
			if o.NeedsReconcile() {
				working = append(working, o)
			}
		}
		seen += len(result.Orders)
		if len(result.Orders) < s.cfg.PageSize {
			break
		}
		// Total equals the page length when the backend omits it
		if result.Total > len(result.Orders) && seen >= result.Total {
			break
		}
	}
	return working, nil
}

// RefreshOrder reconciles a single order right away, with the same
// mapping the batch uses. Any failure is returned.
func (s *Service) RefreshOrder(ctx context.Context, orderID string) (*reconciliation.Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconcile.refresh_order", trace.SpanKindInternal,
		telemetry.AttrOrderID.String(orderID),
		telemetry.AttrTrigger.String(reconciliation.TriggerSingle.String()),
	)
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	o, err := s.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.HasShipment() {
		err = order.ErrNoShipment
		return nil, err
	}

	outcome, err := s.reconcileOne(ctx, o, func(ctx context.Context) error { return ctx.Err() })
	s.metrics.RecordOrder(ctx, outcome.Result.String())
	if err != nil {
		return &outcome, err
	}
	return &outcome, nil
}

// reconcileOne fetches the carrier status of o, maps it and commits the
// mapped status only when it differs from the current one.
//
// A failed fetch yields an unchanged outcome. A failed mutation yields a
// failed outcome. In both cases the error is returned for the caller to
// classify.
func (s *Service) reconcileOne(ctx context.Context, o *order.Order, pace pacer) (reconciliation.Outcome, error) {
	log := logger.L(ctx).With(zap.String("order_id", o.ID))
	outcome := reconciliation.Outcome{
		OrderID:   o.ID,
		OrderCode: o.Shipping.OrderCode,
		Previous:  o.Status,
		Result:    reconciliation.ResultUnchanged,
	}

	if err := pace(ctx); err != nil {
		outcome.Result = reconciliation.ResultFailed
		outcome.Error = err.Error()
		return outcome, err
	}
	fetched, err := s.gateway.FetchShipmentStatus(ctx, o.ID)
	if err != nil {
		log.Warn("Failed to fetch carrier status", zap.Error(err))
		outcome.FetchFailed = true
		outcome.Error = err.Error()
		if isAbort(err) {
			outcome.Result = reconciliation.ResultFailed
		}
		return outcome, err
	}

	current := o.Status
	version := o.Version
	if fetched.Status.IsValid() {
		current = fetched.Status
		outcome.Previous = current
	}
	if fetched.Version > 0 {
		version = fetched.Version
	}
	code := fetched.CarrierStatus()
	outcome.CarrierStatus = code
	// A mutation invalidates on its own. Without one, the cached views
	// still carry the old shipping code whenever the carrier moved.
	mutated := false
	if code != o.CarrierStatus() {
		defer func() {
			if !mutated {
				s.invalidate(ctx, o.ID)
			}
		}()
	}

	if current.IsTerminal() {
		log.Debug("Order reached a terminal status, skipping",
			zap.String("status", current.String()),
			zap.String("carrier_status", code.String()))
		return outcome, nil
	}

	mapping := order.MapCarrierStatus(code)
	if !mapping.Changes {
		log.Info("Carrier status has no order mapping",
			zap.String("carrier_status", code.String()),
			zap.Bool("known", code.IsValid()))
		return outcome, nil
	}
	outcome.Target = mapping.OrderStatus
	outcome.Reason = mapping.Reason
	if !mapping.RequiresUpdate(current) {
		return outcome, nil
	}

	if err := pace(ctx); err != nil {
		outcome.Result = reconciliation.ResultFailed
		outcome.Error = err.Error()
		return outcome, err
	}
	mutated = true
	err = s.gateway.SetOrderStatus(ctx, o.ID, orderapi.StatusChange{
		Status:          mapping.OrderStatus,
		Reason:          mapping.Reason,
		ExpectedVersion: version,
	})
	s.invalidate(ctx, o.ID)
	if err != nil {
		log.Warn("Failed to update order status",
			zap.String("from", current.String()),
			zap.String("to", mapping.OrderStatus.String()),
			zap.Error(err))
		outcome.Result = reconciliation.ResultFailed
		outcome.Error = err.Error()
		return outcome, err
	}

	log.Info("Order status reconciled",
		zap.String("carrier_status", code.String()),
		zap.String("from", current.String()),
		zap.String("to", mapping.OrderStatus.String()))
	outcome.Result = reconciliation.ResultUpdated
	return outcome, nil
}

func (s *Service) invalidate(ctx context.Context, orderID string) {
	if s.views == nil {
		return
	}
	if err := s.views.InvalidateOrder(ctx, orderID); err != nil {
		logger.L(ctx).Warn("Failed to invalidate order view", zap.String("order_id", orderID), zap.Error(err))
	}
}
