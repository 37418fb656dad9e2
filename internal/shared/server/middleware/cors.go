package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coldemail-backend/internal/shared/server/respond"
)

// CORS sets CORS headers and handles preflight requests. An origin is allowed when it
// starts with one of allowedOrigins; requests without an Origin header pass through.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := origin != "" && originAllowed(origins, origin)
		if allowed {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			h.Set("Access-Control-Expose-Headers", "X-Request-Id, RateLimit-Limit, RateLimit-Remaining, RateLimit-Reset, Retry-After")
			h.Set("Access-Control-Max-Age", "600")
		}

		if origin != "" && !allowed {
			respond.Error(c, http.StatusForbidden, "cors_rejected", "Not allowed by CORS", nil)
			return
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		c.Next()
	}
}

func originAllowed(origins []string, origin string) bool {
	for _, o := range origins {
		if strings.HasPrefix(origin, o) {
			return true
		}
	}
	return false
}
