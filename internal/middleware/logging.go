package middleware

import (
	"time"

	"codexai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// RequestLogger records one structured log line per request. Bodies are
// not captured: uploads run to megabytes and vault content must not end
// up in logs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("HTTP request",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestSize", c.Request.ContentLength,
			"responseSize", c.Writer.Size(),
		)
	}
}
