package router

import (
	"github.com/shopadmin/backend/internal/interfaces/http/handler"
)

// OrderRoutes maps the order endpoints. Mutations run through the
// transition gate in the application layer.
func OrderRoutes(h *handler.OrderHandler) *Group {
	g := NewGroup("orders", "/orders").
		GET("", h.List).
		GET("/:id", h.Get).
		PATCH("/:id/status", h.ChangeStatus).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/refresh", h.Refresh).
		PATCH("/:id/carrier-status", h.OverrideCarrierStatus)
	g.Child("shipment", "/:id/shipment").
		POST("", h.CreateShipment).
		POST("/cancel", h.CancelShipment)
	return g
}

// ReconcileRoutes maps the scheduler endpoints
func ReconcileRoutes(h *handler.ReconcileHandler) *Group {
	g := NewGroup("reconcile", "/reconcile").
		POST("/run", h.Run).
		GET("/status", h.Status).
		PUT("/auto-refresh", h.SetAutoRefresh)
	g.Child("runs", "/runs").
		GET("", h.ListRuns).
		GET("/:id", h.GetRun)
	return g
}

// TaxonomyRoutes maps the enumeration endpoint
func TaxonomyRoutes(h *handler.TaxonomyHandler) *Group {
	return NewGroup("taxonomy", "/taxonomy").GET("", h.Get)
}
