package auth

import (
	"slices"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxScopes    = "scopes"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

// GetScopes returns the scopes carried by the request's token.
func GetScopes(c *gin.Context) []string {
	return c.GetStringSlice(ctxScopes)
}

// HasScope reports whether the request's token carries scope.
func HasScope(c *gin.Context, scope string) bool {
	return slices.Contains(GetScopes(c), scope)
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserEmail, claims.Email)
	c.Set(ctxScopes, claims.Scopes)
}
