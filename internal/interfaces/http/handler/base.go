// Package handler holds the gin handlers of the admin API. Handlers stay
// thin: bind, call one application service, render the dto envelope.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/domain/shared"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/shopadmin/backend/internal/infrastructure/scheduler"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
	"github.com/shopadmin/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError turns any service error into the response envelope. It is
// the only place errors become HTTP statuses.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var (
		domainErr     *shared.DomainError
		validationErr *orderapi.ValidationError
		conflictErr   *orderapi.ConflictError
		authErr       *orderapi.AuthError
		notFoundErr   *orderapi.NotFoundError
		networkErr    *orderapi.NetworkError
		apiErr        *orderapi.ShippingAPIError
	)

	switch {
	case errors.As(err, &domainErr):
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
	case errors.As(err, &validationErr):
		// The backend's message is shown to the admin as is
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeBackendValidation, validationErr.Message)
	case errors.As(err, &conflictErr):
		h.Error(c, http.StatusConflict, dto.ErrCodeConcurrencyConflict,
			"Order was modified by someone else. Reload and try again.")
	case errors.As(err, &authErr):
		if authErr.Forbidden() {
			h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, "Not allowed by the shop backend")
			return
		}
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Session rejected by the shop backend")
	case errors.As(err, &notFoundErr):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Order not found")
	case errors.Is(err, context.DeadlineExceeded):
		h.Error(c, http.StatusGatewayTimeout, dto.ErrCodeTimeout, "Request timed out")
	case errors.As(err, &networkErr):
		h.logError(c, err)
		h.Error(c, http.StatusBadGateway, dto.ErrCodeBadGateway, "Shop backend is unreachable")
	case errors.As(err, &apiErr):
		h.logError(c, err)
		h.Error(c, http.StatusBadGateway, dto.ErrCodeBadGateway, "Shop backend returned an error")
	case errors.Is(err, scheduler.ErrReconcileInProgress):
		h.Error(c, http.StatusConflict, dto.ErrCodeReconcileInProgress, "A reconciliation run is already in progress")
	case errors.Is(err, scheduler.ErrRunNotFound):
		h.NotFound(c, "Reconciliation run not found")
	case errors.Is(err, orderapi.ErrNoToken):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
	default:
		h.logError(c, err)
		h.InternalError(c, "An unexpected error occurred")
	}
}

func (h *BaseHandler) logError(c *gin.Context, err error) {
	logger.GetGinLogger(c).Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
}
