package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const serviceName = "TrueVail Backend"

// Version is stamped at build time
var Version = "1.0.0"

type HealthHandler struct {
	db      *gorm.DB
	backend string
}

// NewHealthHandler creates the status endpoints; db may be nil when history is disabled
func NewHealthHandler(db *gorm.DB, backend string) *HealthHandler {
	return &HealthHandler{db: db, backend: backend}
}

// Home serves the root banner
func (h *HealthHandler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "TrueVail backend is running",
		"message": "Use POST /analyze to analyze content",
	})
}

// Health reports liveness
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": Version,
		"backend": h.backend,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports whether the history database answers
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
				"error":   err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": serviceName,
	})
}
