package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"coldemail-backend/internal/shared/metrics"
	"coldemail-backend/internal/shared/server/respond"
	"coldemail-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 internal_error envelope. Nothing from the
// panic value reaches the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			endpoint := c.GetString("endpoint")
			metrics.IncPanic(endpoint)
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"endpoint":   endpoint,
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"panic":      rec,
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
		}()
		c.Next()
	}
}
