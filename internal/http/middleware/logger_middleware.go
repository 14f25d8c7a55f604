package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
)

// LoggerMiddleware writes one access-log line per request. Health checks log at debug.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithRequest(c.Request.Context(), logger.Request{
			Method:   c.Request.Method,
			Path:     c.FullPath(),
			ClientIP: c.ClientIP(),
			Status:   c.Writer.Status(),
			Latency:  time.Since(start),
			Size:     c.Writer.Size(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("HTTP Request Processed")
		case c.Request.URL.Path == "/health":
			entry.Debug("HTTP Request Processed")
		default:
			entry.Info("HTTP Request Processed")
		}
	}
}
