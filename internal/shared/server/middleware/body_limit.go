package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coldemail-backend/internal/shared/server/respond"
)

// BodyLimit rejects declared bodies over limit and caps undeclared ones so the JSON
// decoder fails with *http.MaxBytesError.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", nil)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
