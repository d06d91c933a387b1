// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity from a bearer token and gates the
// administrator routes. The verified subject is stored under the "userID"
// Gin key; handlers never read identity from anything else.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is the Gin context key holding the authenticated subject.
const userIDKey = "userID"

// TokenVerifier turns a bearer token into a stable user identifier.
type TokenVerifier interface {
	VerifySubject(ctx context.Context, token string) (string, error)
}

// RequireUser rejects requests without a valid bearer token with 401.
func RequireUser(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		sub, err := v.VerifySubject(c.Request.Context(), token)
		if err != nil || sub == "" {
			LoggerFrom(c).Warn().Err(err).Msg("bearer token rejected")
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
			return
		}
		c.Set(userIDKey, sub)
		c.Next()
	}
}

// RequireAdmin admits only users for which isAdmin returns true. It must run
// after RequireUser.
func RequireAdmin(isAdmin func(userID string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(userIDKey)
		if uid == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing identity")
			return
		}
		if !isAdmin(uid) {
			abortJSON(c, http.StatusForbidden, "forbidden", "administrator only")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated subject, or "" when RequireUser did not run.
func UserID(c *gin.Context) string { return c.GetString(userIDKey) }

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// abortJSON writes the standard error envelope. The handlers package owns the
// envelope type; middleware repeats its shape to avoid an import cycle.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
