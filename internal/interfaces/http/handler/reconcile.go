package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopadmin/backend/internal/domain/reconciliation"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/shopadmin/backend/internal/infrastructure/scheduler"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
	"github.com/shopadmin/backend/internal/interfaces/http/middleware"
)

// ReconcileController is the scheduler surface the API drives
type ReconcileController interface {
	RunNow(ctx context.Context) (*reconciliation.Report, error)
	Status() scheduler.Status
	SetAutoRefresh(ctx context.Context, enabled bool, updatedBy string) (reconciliation.Settings, error)
	RecentRuns(ctx context.Context, limit int) ([]reconciliation.Report, error)
	GetRun(ctx context.Context, id uuid.UUID) (*reconciliation.Report, error)
}

// ReconcileHandler handles reconciliation API endpoints
type ReconcileHandler struct {
	BaseHandler
	scheduler ReconcileController
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(scheduler ReconcileController) *ReconcileHandler {
	return &ReconcileHandler{scheduler: scheduler}
}

// Run godoc
// @ID           runReconcile
// @Summary      Reconcile every carrier order now
// @Description  Runs a full pass and returns its report. Answers 409 while another pass is running.
// @Tags         reconcile
// @Produce      json
// @Success      200 {object} dto.Response{data=reconciliation.Report}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /reconcile/run [post]
func (h *ReconcileHandler) Run(c *gin.Context) {
	report, err := h.scheduler.RunNow(c.Request.Context())
	// A rejected session surfaces as 401 so the console can sign in again.
	// Other aborted passes still have a report whose status says why.
	if err != nil && (report == nil || errors.Is(err, orderapi.ErrAuth)) {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Status godoc
// @ID           getReconcileStatus
// @Summary      Scheduler state
// @Tags         reconcile
// @Produce      json
// @Success      200 {object} dto.Response{data=scheduler.Status}
// @Security     BearerAuth
// @Router       /reconcile/status [get]
func (h *ReconcileHandler) Status(c *gin.Context) {
	h.Success(c, h.scheduler.Status())
}

// SetAutoRefresh godoc
// @ID           setAutoRefresh
// @Summary      Turn scheduled reconciliation on or off
// @Tags         reconcile
// @Accept       json
// @Produce      json
// @Param        request  body  dto.AutoRefreshRequest  true  "Toggle"
// @Success      200 {object} dto.Response{data=dto.AutoRefreshResponse}
// @Security     BearerAuth
// @Router       /reconcile/auto-refresh [put]
func (h *ReconcileHandler) SetAutoRefresh(c *gin.Context) {
	var req dto.AutoRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	settings, err := h.scheduler.SetAutoRefresh(c.Request.Context(), *req.Enabled, middleware.GetAdminSubject(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToAutoRefreshResponse(settings))
}

// ListRuns godoc
// @ID           listReconcileRuns
// @Summary      Recent reconciliation runs
// @Tags         reconcile
// @Produce      json
// @Param        limit  query  int  false  "Number of runs"  default(20)  maximum(100)
// @Success      200 {object} dto.Response{data=[]reconciliation.Report}
// @Security     BearerAuth
// @Router       /reconcile/runs [get]
func (h *ReconcileHandler) ListRuns(c *gin.Context) {
	var query dto.RunsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	runs, err := h.scheduler.RecentRuns(c.Request.Context(), query.LimitOrDefault())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, runs)
}

// GetRun godoc
// @ID           getReconcileRun
// @Summary      One reconciliation run with its per-order outcomes
// @Tags         reconcile
// @Produce      json
// @Param        id  path  string  true  "Run ID"
// @Success      200 {object} dto.Response{data=reconciliation.Report}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /reconcile/runs/{id} [get]
func (h *ReconcileHandler) GetRun(c *gin.Context) {
	var req dto.RunIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	report, err := h.scheduler.GetRun(c.Request.Context(), uuid.MustParse(req.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
