package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	errMissingHeader = errors.New("missing Authorization header")
	errHeaderFormat  = errors.New("invalid Authorization header format")
)

// bearerToken extracts the token from Authorization: Bearer <token>.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errMissingHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errHeaderFormat
	}
	return parts[1], nil
}

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
				"code":  "unauthenticated",
			})
			return
		}

		claims, err := jwtManager.ParseAndValidate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
				"code":  "unauthenticated",
			})
			return
		}

		// Store user info into Gin context for later handlers.
		setClaims(c, claims)

		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets anonymous requests through.
// A malformed or expired token is treated as anonymous.
func OptionalAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := bearerToken(c)
		if err == nil {
			if claims, err := jwtManager.ParseAndValidate(tokenStr); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireScope rejects tokens lacking scope. It MUST be used after AuthRequired.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasScope(c, scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "token lacks the " + scope + " scope",
				"code":  "insufficient_scope",
			})
			return
		}
		c.Next()
	}
}
