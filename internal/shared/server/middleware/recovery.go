package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"repo-analyzer-client/internal/shared/server/respond"
	"repo-analyzer-client/internal/shared/telemetry"
)

const panicMessage = "Unexpected server error"

// Recovery turns a panic into a 500. Browser page requests get plain text,
// API callers get the JSON error body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("http.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"session_id": SessionIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
			})
			if wantsHTML(c) {
				c.Header("Cache-Control", "no-store")
				c.String(http.StatusInternalServerError, panicMessage)
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", panicMessage, nil)
		}()
		c.Next()
	}
}

func wantsHTML(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
