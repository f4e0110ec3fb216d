package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ReconcileMetrics records carrier reconciliation activity
type ReconcileMetrics struct {
	runs       *Counter
	orders     *Counter
	duration   *Histogram
	workingSet *Gauge
}

// NewReconcileMetrics registers the reconciliation instruments on meter
func NewReconcileMetrics(meter metric.Meter) (*ReconcileMetrics, error) {
	runs, err := NewCounter(meter, "reconcile_runs_total",
		"Reconciliation passes by trigger and final status", "{run}")
	if err != nil {
		return nil, err
	}
	orders, err := NewCounter(meter, "reconcile_orders_total",
		"Orders processed by reconciliation, by result", "{order}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, "reconcile_run_duration_seconds",
		"Wall time of a reconciliation pass", RunDurationBuckets)
	if err != nil {
		return nil, err
	}
	workingSet, err := NewGauge(meter, "reconcile_working_set_size",
		"Orders selected by the most recent reconciliation pass", "{order}")
	if err != nil {
		return nil, err
	}
	return &ReconcileMetrics{
		runs:       runs,
		orders:     orders,
		duration:   duration,
		workingSet: workingSet,
	}, nil
}

// RecordRun records a finished pass. Safe on a nil receiver.
func (m *ReconcileMetrics) RecordRun(ctx context.Context, trigger, status string, d time.Duration, workingSet int) {
	if m == nil {
		return
	}
	m.runs.Inc(ctx, AttrTrigger.String(trigger), AttrStatus.String(status))
	m.duration.RecordDuration(ctx, d, AttrTrigger.String(trigger))
	m.workingSet.Record(ctx, int64(workingSet))
}

// RecordOrder records the result of one order. Safe on a nil receiver.
func (m *ReconcileMetrics) RecordOrder(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.orders.Inc(ctx, AttrResult.String(result))
}
