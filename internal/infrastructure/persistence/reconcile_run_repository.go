package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/domain/shared"
	"github.com/shopadmin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// MaxRecentRuns caps FindRecent
const MaxRecentRuns = 500

// GormRunRepository implements reconciliation.RunRepository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormRunRepository) WithTx(tx *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: tx}
}

// Save stores the run and its outcomes in one transaction
func (r *GormRunRepository) Save(ctx context.Context, report *reconciliation.Report) error {
	if report == nil {
		return shared.ErrInvalidInput
	}
	model := models.ReconcileRunModelFromDomain(report)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		outcomes := model.Outcomes
		model.Outcomes = nil
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(outcomes) == 0 {
			return nil
		}
		return tx.CreateInBatches(outcomes, 100).Error
	})
}

// FindByID returns the run with its outcomes in processing order
func (r *GormRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconciliation.Report, error) {
	var model models.ReconcileRunModel
	err := r.db.WithContext(ctx).
		Preload("Outcomes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent returns up to limit runs, newest first, without outcomes
func (r *GormRunRepository) FindRecent(ctx context.Context, limit int) ([]reconciliation.Report, error) {
	if limit <= 0 || limit > MaxRecentRuns {
		limit = MaxRecentRuns
	}
	var rows []models.ReconcileRunModel
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	reports := make([]reconciliation.Report, 0, len(rows))
	for i := range rows {
		reports = append(reports, *rows[i].ToDomain())
	}
	return reports, nil
}

var _ reconciliation.RunRepository = (*GormRunRepository)(nil)
