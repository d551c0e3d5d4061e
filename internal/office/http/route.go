package http

import (
	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/office-booking-backend/internal/auth"
)

func RegisterRoutes(
	g *gin.RouterGroup,
	h *OfficeHandler,
	optionalAuth gin.HandlerFunc,
	authMiddleware gin.HandlerFunc,
	sysAdminMiddleware gin.HandlerFunc,
) {
	group := g.Group("/offices")

	// === Public Routes ===
	// The caller is identified when a token is present so that hosts can see their own unpublished offices.
	group.GET("", optionalAuth, h.List)
	group.GET("/:id", h.Get)

	// === Authenticated Routes ===
	{
		group.POST("", authMiddleware, auth.RequireScope(auth.ScopeOfficeCreate), h.Create)
		group.PATCH("/:id", authMiddleware, auth.RequireScope(auth.ScopeOfficeUpdate), h.Update)
		group.DELETE("/:id", authMiddleware, auth.RequireScope(auth.ScopeOfficeDelete), h.Delete)
	}

	// === System Admin Routes ===
	admin := g.Group("/admin/offices")
	admin.Use(authMiddleware, sysAdminMiddleware)
	{
		admin.PATCH("/:id/approval", h.Review)
	}
}
