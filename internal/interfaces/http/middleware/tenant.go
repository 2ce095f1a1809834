package middleware

import (
	"strings"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths []string
	// Required rejects requests without a tenant with 400
	Required bool
	// ClaimKey, when set, is a gin context key an upstream auth middleware
	// fills with the tenant id. It wins over the header.
	ClaimKey string
	Logger   *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/api/v1/ledger/health", "/swagger"},
		Required:  true,
	}
}

// TenantMiddleware resolves the tenant of the request and stores it as a
// uuid.UUID under TenantIDKey. The request logger gains a tenant_id field.
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		raw := ""
		if cfg.ClaimKey != "" {
			raw = c.GetString(cfg.ClaimKey)
		}
		if raw == "" {
			raw = strings.TrimSpace(c.GetHeader(TenantHeaderKey))
		}

		if raw == "" {
			if cfg.Required {
				abortWithError(c, dto.ErrCodeTenantMissing, "tenant is required (X-Tenant-ID header)")
				return
			}
			c.Next()
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			if cfg.Logger != nil {
				cfg.Logger.Debug("Rejected tenant id", zap.String("tenant_id", raw))
			}
			abortWithError(c, dto.ErrCodeTenantInvalid, "invalid tenant id")
			return
		}

		c.Set(TenantIDKey, tenantID)
		ctx, log := logger.WithTenantID(c.Request.Context(), logger.GetGinLogger(c, cfg.Logger), tenantID.String())
		c.Set(logger.GinContextKey, log)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetTenantID returns the tenant resolved by TenantMiddleware, or uuid.Nil
func GetTenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func abortWithError(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, c.GetString("request_id")))
}
