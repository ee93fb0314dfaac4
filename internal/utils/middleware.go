package utils

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ContextLogger attaches a request-scoped logger (carrying the request id)
// to the request context so deeper layers can pick it up via FromContext.
func ContextLogger(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestLogger := logger
		if requestID := c.GetString("request_id"); requestID != "" {
			requestLogger = logger.WithRequestID(requestID)
		}
		c.Request = c.Request.WithContext(IntoContext(c.Request.Context(), requestLogger))
		c.Next()
	}
}

// LoggerMiddleware logs one line per request after it completes.
func LoggerMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("request completed",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}
