package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

// RequireSystemAdmin ensures the authenticated user is a system admin, who acts as the office reviewer.
// It MUST be used after auth.AuthRequired middleware.
func RequireSystemAdmin(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthenticated"})
			return
		}

		u, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": "unauthenticated"})
			return
		}

		if !u.IsActive || !u.IsSystemAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: system admin access required", "code": "permission_denied"})
			return
		}

		c.Next()
	}
}
