package dto

import (
	"time"

	"github.com/shopadmin/backend/internal/domain/reconciliation"
)

// RunsQuery limits the run history listing
type RunsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// LimitOrDefault returns the requested limit, 20 when unset
func (q RunsQuery) LimitOrDefault() int {
	if q.Limit == 0 {
		return 20
	}
	return q.Limit
}

// AutoRefreshRequest toggles scheduled reconciliation
type AutoRefreshRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// AutoRefreshResponse is the stored toggle after a change
type AutoRefreshResponse struct {
	AutoRefresh bool      `json:"auto_refresh"`
	UpdatedAt   time.Time `json:"updated_at"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
}

// ToAutoRefreshResponse renders stored settings
func ToAutoRefreshResponse(s reconciliation.Settings) AutoRefreshResponse {
	return AutoRefreshResponse{
		AutoRefresh: s.AutoRefresh,
		UpdatedAt:   s.UpdatedAt,
		UpdatedBy:   s.UpdatedBy,
	}
}
