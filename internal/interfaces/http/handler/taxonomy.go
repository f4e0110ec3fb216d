package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
)

// TaxonomyHandler serves the status enumerations the console renders
type TaxonomyHandler struct {
	BaseHandler
	taxonomy dto.TaxonomyResponse
}

// NewTaxonomyHandler creates a new TaxonomyHandler
func NewTaxonomyHandler() *TaxonomyHandler {
	return &TaxonomyHandler{taxonomy: dto.BuildTaxonomy()}
}

// Get godoc
// @ID           getTaxonomy
// @Summary      Status enumerations
// @Description  Order, payment and carrier statuses with labels and colours, plus the forward flow
// @Tags         taxonomy
// @Produce      json
// @Success      200 {object} dto.Response{data=dto.TaxonomyResponse}
// @Security     BearerAuth
// @Router       /taxonomy [get]
func (h *TaxonomyHandler) Get(c *gin.Context) {
	h.Success(c, h.taxonomy)
}
