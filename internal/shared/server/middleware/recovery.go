package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"aegis-backend/internal/shared/server/respond"
	"aegis-backend/internal/shared/telemetry"
)

// InternalErrorMessage is the only detail a caller sees for a server failure.
const InternalErrorMessage = "An internal error occurred processing your request."

// Recovery recovers from panics and returns a generic 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("panic", map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      rec,
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				})
				respond.Error(c, http.StatusInternalServerError, "internal", InternalErrorMessage)
			}
		}()
		c.Next()
	}
}
