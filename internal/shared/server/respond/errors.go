package respond

import (
	"github.com/gin-gonic/gin"

	"aegis-backend/internal/shared/telemetry"
)

// ErrorResponse is the error payload returned to callers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error logs the failure and sends {"error": message}. code is only logged.
func Error(c *gin.Context, status int, code, message string) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
		"client_ip":  c.ClientIP(),
	})

	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}
