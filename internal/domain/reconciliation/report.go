// Package reconciliation describes the record of a carrier
// reconciliation pass: the per-order outcomes, the run summary and the
// persisted auto-refresh setting.
package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/shipping"
)

// Trigger identifies what started a pass
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerOnDemand  Trigger = "on_demand"
	// TriggerSingle marks a single-order refresh; it is never persisted as a run
	TriggerSingle Trigger = "single"
)

// IsValid checks if the trigger is known
func (t Trigger) IsValid() bool {
	switch t {
	case TriggerScheduled, TriggerOnDemand, TriggerSingle:
		return true
	}
	return false
}

// String returns the string representation
func (t Trigger) String() string {
	return string(t)
}

// Result is the per-order result of a pass
type Result string

const (
	ResultUpdated   Result = "updated"
	ResultUnchanged Result = "unchanged"
	ResultFailed    Result = "failed"
)

// String returns the string representation
func (r Result) String() string {
	return string(r)
}

// RunStatus summarizes a whole pass
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// String returns the string representation
func (s RunStatus) String() string {
	return string(s)
}

// Outcome records what happened to one order. FetchFailed is set when the
// carrier status could not be read; Result is then unchanged and Error holds
// the cause.
type Outcome struct {
	OrderID       string                 `json:"order_id"`
	OrderCode     string                 `json:"order_code,omitempty"`
	CarrierStatus shipping.CarrierStatus `json:"carrier_status,omitempty"`
	Previous      order.OrderStatus      `json:"previous"`
	Target        order.OrderStatus      `json:"target,omitempty"`
	Result        Result                 `json:"result"`
	Reason        string                 `json:"reason,omitempty"`
	Error         string                 `json:"error,omitempty"`
	FetchFailed   bool                   `json:"fetch_failed,omitempty"`
}

// Report is the summary of one pass
type Report struct {
	RunID       uuid.UUID `json:"run_id"`
	Trigger     Trigger   `json:"trigger"`
	Status      RunStatus `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Total       int       `json:"total"`
	Updated     int       `json:"updated"`
	Unchanged   int       `json:"unchanged"`
	Failed      int       `json:"failed"`
	Error       string    `json:"error,omitempty"`
	Outcomes    []Outcome `json:"outcomes"`
}

// NewReport starts a report for a pass beginning now
func NewReport(trigger Trigger) *Report {
	return &Report{
		RunID:     uuid.New(),
		Trigger:   trigger,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
		Outcomes:  []Outcome{},
	}
}

// Add appends an outcome and updates the counters
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Total++
	switch o.Result {
	case ResultUpdated:
		r.Updated++
	case ResultUnchanged:
		r.Unchanged++
	case ResultFailed:
		r.Failed++
	}
}

// Complete stamps the completion time and derives the final status.
// A non-nil abort error marks the whole pass failed.
func (r *Report) Complete(abort error) {
	r.CompletedAt = time.Now()
	switch {
	case abort != nil:
		r.Status = RunStatusFailed
		r.Error = abort.Error()
	case r.Failed == 0:
		r.Status = RunStatusSuccess
	case r.Failed == r.Total:
		r.Status = RunStatusFailed
	default:
		r.Status = RunStatusPartial
	}
}

// Duration returns the wall time of the pass
func (r *Report) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
