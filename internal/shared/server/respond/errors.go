package respond

import (
	"github.com/gin-gonic/gin"

	"coldemail-backend/internal/shared/telemetry"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the {"error": {...}} envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with the error envelope. Server faults log at error level,
// client faults at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": telemetry.RequestID(c.Request.Context()),
	}
	if endpoint := c.GetString("endpoint"); endpoint != "" {
		fields["endpoint"] = endpoint
	}
	log := telemetry.Warn
	if status >= 500 {
		log = telemetry.Error
	}
	log("http.error", fields)

	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}
