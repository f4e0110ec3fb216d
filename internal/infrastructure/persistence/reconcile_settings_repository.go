package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsRowID is the key of the single settings row
const settingsRowID = 1

// GormSettingsRepository implements reconciliation.SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns the stored settings. ok is false when nothing was saved yet.
func (r *GormSettingsRepository) Get(ctx context.Context) (reconciliation.Settings, bool, error) {
	var model models.ReconcileSettingsModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", settingsRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reconciliation.Settings{}, false, nil
		}
		return reconciliation.Settings{}, false, err
	}
	return reconciliation.Settings{
		AutoRefresh: model.AutoRefresh,
		UpdatedAt:   model.UpdatedAt,
		UpdatedBy:   model.UpdatedBy,
	}, true, nil
}

// Save upserts the settings row
func (r *GormSettingsRepository) Save(ctx context.Context, settings reconciliation.Settings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now()
	}
	model := models.ReconcileSettingsModel{
		ID:          settingsRowID,
		AutoRefresh: settings.AutoRefresh,
		UpdatedAt:   settings.UpdatedAt,
		UpdatedBy:   settings.UpdatedBy,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"auto_refresh", "updated_at", "updated_by"}),
		}).
		Create(&model).Error
}

var _ reconciliation.SettingsRepository = (*GormSettingsRepository)(nil)
