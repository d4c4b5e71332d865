package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vaibhav1874/TrueVail/internal/logger"
)

const (
	CorrelationHeader = "X-Correlation-ID"
	requestIDHeader   = "X-Request-ID"
	correlationKey    = "correlation_id"
)

// RequestIDMiddleware assigns every request a correlation ID and carries it in the request context
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationHeader)
		if correlationID == "" {
			correlationID = c.GetHeader(requestIDHeader)
		}
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(correlationKey, correlationID)
		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), correlationID))
		c.Header(CorrelationHeader, correlationID)
		c.Next()
	}
}

// CorrelationID returns the ID assigned by RequestIDMiddleware
func CorrelationID(c *gin.Context) string {
	return c.GetString(correlationKey)
}

// LoggingMiddleware logs HTTP requests with structured logging
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithCorrelationID(CorrelationID(c)).WithFields(map[string]interface{}{
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
			"response_size": c.Writer.Size(),
		})

		level := logrus.InfoLevel
		switch {
		case status >= 500:
			level = logrus.ErrorLevel
		case status >= 400:
			level = logrus.WarnLevel
		}
		entry.Log(level, "HTTP request processed")
	}
}
