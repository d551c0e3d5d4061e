package http

import (
	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/office-booking-backend/internal/auth"
)

// RegisterRoutes registers visitor and host reservation routes.
// bookingLimiter throttles POST /reservations per user.
func RegisterRoutes(g *gin.RouterGroup, h *ReservationHandler, authMiddleware, bookingLimiter gin.HandlerFunc) {
	group := g.Group("/reservations")
	group.Use(authMiddleware)
	{
		group.POST("", auth.RequireScope(auth.ScopeReservationMake), bookingLimiter, h.Create)
		group.GET("", auth.RequireScope(auth.ScopeReservationShow), h.List)
		group.GET("/:id", auth.RequireScope(auth.ScopeReservationShow), h.Get)
		group.POST("/:id/cancel", auth.RequireScope(auth.ScopeReservationCancel), h.Cancel)
	}

	host := g.Group("/host/reservations")
	host.Use(authMiddleware)
	{
		host.GET("", auth.RequireScope(auth.ScopeReservationShow), h.ListForHost)
	}
}
