package middleware

import (
	"github.com/gin-gonic/gin"

	"medibot/utils"
)

// ErrorHandler forwards errors attached with c.Error to Sentry once the
// handler chain has finished.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ginErr := range c.Errors {
			utils.CaptureError(ginErr.Err, map[string]interface{}{
				"endpoint":   c.Request.URL.Path,
				"method":     c.Request.Method,
				"status":     c.Writer.Status(),
				"request_id": c.GetString(RequestIDKey),
			})
		}
	}
}
