package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopadmin/backend/internal/domain/order"
	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/domain/shipping"
)

// ReconcileRunModel is the persistence model for a finished reconciliation pass
type ReconcileRunModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Trigger     string    `gorm:"type:varchar(20);not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	StartedAt   time.Time `gorm:"not null;index"`
	CompletedAt time.Time `gorm:"not null"`
	Total       int       `gorm:"not null;default:0"`
	Updated     int       `gorm:"not null;default:0"`
	Unchanged   int       `gorm:"not null;default:0"`
	Failed      int       `gorm:"not null;default:0"`
	Error       string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	Outcomes []ReconcileOutcomeModel `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ReconcileRunModel) TableName() string {
	return "reconcile_runs"
}

// ReconcileOutcomeModel is one order's outcome within a run
type ReconcileOutcomeModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	RunID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Position      int       `gorm:"not null"`
	OrderID       string    `gorm:"type:varchar(64);not null;index"`
	OrderCode     string    `gorm:"type:varchar(64)"`
	CarrierStatus string    `gorm:"type:varchar(32)"`
	Previous      string    `gorm:"type:varchar(20);not null"`
	Target        string    `gorm:"type:varchar(20)"`
	Result        string    `gorm:"type:varchar(20);not null"`
	Reason        string    `gorm:"type:varchar(255)"`
	Error         string    `gorm:"type:text"`
	FetchFailed   bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ReconcileOutcomeModel) TableName() string {
	return "reconcile_outcomes"
}

// ReconcileSettingsModel holds the single settings row
type ReconcileSettingsModel struct {
	ID          int       `gorm:"primaryKey;autoIncrement:false"`
	AutoRefresh bool      `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	UpdatedBy   string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ReconcileSettingsModel) TableName() string {
	return "reconcile_settings"
}

// ReconcileRunModelFromDomain converts a report, outcomes included
func ReconcileRunModelFromDomain(r *reconciliation.Report) *ReconcileRunModel {
	m := &ReconcileRunModel{
		ID:          r.RunID,
		Trigger:     r.Trigger.String(),
		Status:      r.Status.String(),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Total:       r.Total,
		Updated:     r.Updated,
		Unchanged:   r.Unchanged,
		Failed:      r.Failed,
		Error:       r.Error,
		CreatedAt:   r.StartedAt,
		UpdatedAt:   r.CompletedAt,
		Outcomes:    make([]ReconcileOutcomeModel, 0, len(r.Outcomes)),
	}
	for i, o := range r.Outcomes {
		m.Outcomes = append(m.Outcomes, ReconcileOutcomeModel{
			RunID:         r.RunID,
			Position:      i,
			OrderID:       o.OrderID,
			OrderCode:     o.OrderCode,
			CarrierStatus: o.CarrierStatus.String(),
			Previous:      o.Previous.String(),
			Target:        o.Target.String(),
			Result:        o.Result.String(),
			Reason:        o.Reason,
			Error:         o.Error,
			FetchFailed:   o.FetchFailed,
		})
	}
	return m
}

// ToDomain converts the run model back to a report. Outcomes are included
// only when they were preloaded.
func (m *ReconcileRunModel) ToDomain() *reconciliation.Report {
	r := &reconciliation.Report{
		RunID:       m.ID,
		Trigger:     reconciliation.Trigger(m.Trigger),
		Status:      reconciliation.RunStatus(m.Status),
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		Total:       m.Total,
		Updated:     m.Updated,
		Unchanged:   m.Unchanged,
		Failed:      m.Failed,
		Error:       m.Error,
		Outcomes:    make([]reconciliation.Outcome, 0, len(m.Outcomes)),
	}
	for _, o := range m.Outcomes {
		r.Outcomes = append(r.Outcomes, o.ToDomain())
	}
	return r
}

// ToDomain converts an outcome row
func (m *ReconcileOutcomeModel) ToDomain() reconciliation.Outcome {
	return reconciliation.Outcome{
		OrderID:       m.OrderID,
		OrderCode:     m.OrderCode,
		CarrierStatus: shipping.CarrierStatus(m.CarrierStatus),
		Previous:      order.OrderStatus(m.Previous),
		Target:        order.OrderStatus(m.Target),
		Result:        reconciliation.Result(m.Result),
		Reason:        m.Reason,
		Error:         m.Error,
		FetchFailed:   m.FetchFailed,
	}
}
