package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger checks a dependency; *sql.DB satisfies it
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness with a database round trip
type HealthHandler struct {
	BaseHandler
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{BaseHandler: BaseHandler{logger: logger}, db: db, timeout: 2 * time.Second}
}

// Health godoc
// @Summary      Health check
// @Description  Pings the database
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthData}
// @Failure      503 {object} dto.Response{data=HealthData}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.GetGinLogger(c, h.logger).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    HealthData{Status: "degraded", Database: "unreachable"},
			Code:    dto.ErrCodeInternal,
			Message: "database unreachable",
		})
		return
	}
	h.Success(c, HealthData{Status: "ok", Database: "ok"})
}
