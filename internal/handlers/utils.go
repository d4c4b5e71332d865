package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vaibhav1874/TrueVail/internal/logger"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":           code,
			"message":        message,
			"correlation_id": logger.CorrelationIDFromContext(c.Request.Context()),
		},
	})
}
