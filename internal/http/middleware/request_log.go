package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/parla-backend/internal/platform/ctxutil"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

// RequestLogger emits one line per request once the handler chain returns.
// The level follows the status class.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := append([]interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}, ctxutil.LogFields(c.Request.Context())...)

		if status >= 500 {
			if last := c.Errors.Last(); last != nil {
				fields = append(fields, "error", last.Error())
			}
			log.Error("HTTP request", fields...)
			return
		}
		if status >= 400 {
			log.Warn("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}
