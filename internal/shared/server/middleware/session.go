package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"repo-analyzer-client/internal/shared/auth"
	"repo-analyzer-client/internal/shared/telemetry"
)

const (
	// SessionCookieName carries the signed session token.
	SessionCookieName = "rac_session"

	sessionIDKey  = "sessionId"
	newSessionKey = "sessionNew"
)

// Session resolves the browser session from its signed cookie and issues a
// fresh one when the cookie is missing, tampered with or expired.
func Session(signer *auth.Signer, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if raw, err := c.Cookie(SessionCookieName); err == nil && strings.TrimSpace(raw) != "" {
			if id, err := signer.Verify(raw); err == nil {
				c.Set(sessionIDKey, id)
				c.Next()
				return
			}
		}

		if _, err := IssueSession(c, signer, secure); err != nil {
			telemetry.Error("session.issue_failed", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      err,
			})
		}
		c.Next()
	}
}

// IssueSession starts a new session for the request and writes its cookie.
func IssueSession(c *gin.Context, signer *auth.Signer, secure bool) (string, error) {
	id := uuid.NewString()
	token, err := signer.Sign(id)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(signer.TTL().Seconds()), "/", "", secure, true)
	c.Set(sessionIDKey, id)
	c.Set(newSessionKey, true)
	return id, nil
}

// SessionIDFromContext fetches the session ID set by the session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// IsNewSession reports whether the session was created on this request.
func IsNewSession(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(newSessionKey)
}
