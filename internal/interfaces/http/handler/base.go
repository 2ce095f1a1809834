package handler

import (
	"errors"
	"net/http"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	logger *zap.Logger
}

func getRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// tenantID returns the tenant resolved by the tenant middleware. Routes
// mounted without it get a validation error instead of a nil tenant.
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetTenantID(c)
	if id == uuid.Nil {
		h.Error(c, dto.ErrCodeTenantMissing, "tenant is required (X-Tenant-ID header)")
		return uuid.Nil, false
	}
	return id, true
}

// pathID binds and parses the :id path parameter
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// HandleError maps err to a status and code. The client sees the domain
// message only; the full chain goes to the request log and the span.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	status, code, message := dto.ErrorFromDomain(err)
	log := logger.GetGinLogger(c, h.logger)
	fields := []zap.Field{zap.String("code", code), zap.Int("status", status), zap.Error(err)}
	if status >= http.StatusInternalServerError {
		log.Error("Ledger request failed", fields...)
		_ = c.Error(err)
	} else if !errors.Is(err, shared.ErrNotFound) {
		log.Info("Ledger request rejected", fields...)
	}

	c.Set(middleware.ErrorCodeKey, code)
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}
