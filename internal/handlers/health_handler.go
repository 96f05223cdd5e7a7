package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"sosmed_backend/internal/logger"
	"sosmed_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	*BaseHandler
	sqlDB *sql.DB
}

func NewHealthHandler(base *BaseHandler, sqlDB *sql.DB) *HealthHandler {
	return &HealthHandler{
		BaseHandler: base,
		sqlDB:       sqlDB,
	}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
}

// Health godoc
// @Summary Проверка доступности сервиса и БД
// @Tags ops
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 503 {object} apperrors.ErrorResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.sqlDB.PingContext(ctx); err != nil {
		logger.CtxWithError(ctx, "Health check failed", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, apperrors.ErrorResponse{
			Success: false,
			Message: "Database unavailable",
		})
		return
	}

	h.Respond(c, http.StatusOK, "OK", gin.H{"database": "up"})
}
