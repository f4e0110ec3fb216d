package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Settings are the persisted reconciliation toggles
type Settings struct {
	AutoRefresh bool
	UpdatedAt   time.Time
	UpdatedBy   string
}

// RunRepository persists finished passes
type RunRepository interface {
	// Save stores the report and its outcomes
	Save(ctx context.Context, report *Report) error

	// FindByID returns the report with outcomes.
	// Returns shared.ErrNotFound if not found
	FindByID(ctx context.Context, id uuid.UUID) (*Report, error)

	// FindRecent returns the latest reports, newest first, without outcomes
	FindRecent(ctx context.Context, limit int) ([]Report, error)
}

// SettingsRepository persists the auto-refresh toggle
type SettingsRepository interface {
	// Get returns the stored settings, or ok=false when none were saved yet
	Get(ctx context.Context) (settings Settings, ok bool, err error)

	// Save replaces the stored settings
	Save(ctx context.Context, settings Settings) error
}
