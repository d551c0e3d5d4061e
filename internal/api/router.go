package api

import (
	"log"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	officeHttp "github.com/nekogravitycat/office-booking-backend/internal/office/http"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/validation"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
	reservationHttp "github.com/nekogravitycat/office-booking-backend/internal/reservation/http"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/office-booking-backend/internal/user/http"
)

// Config carries the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService        user.Service
	OfficeService      office.Service
	ReservationService reservation.Service
	JWTManager         *auth.JWTManager

	BookingRateLimit float64
	BookingRateBurst int
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := validation.RegisterWithGin(); err != nil {
		log.Fatalf("failed to register validators: %v", err)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Retry-After"}
	r.Use(cors.New(corsConfig))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	optionalAuth := auth.OptionalAuth(cfg.JWTManager)
	// sysAdminMiddleware: Further checks if the authenticated user has System Admin privileges.
	sysAdminMiddleware := RequireSystemAdmin(cfg.UserService)
	bookingLimiter := NewRateLimiter(cfg.BookingRateLimit, cfg.BookingRateBurst).Limit()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	officeHandler := officeHttp.NewHandler(cfg.OfficeService)
	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, sysAdminMiddleware)
		officeHttp.RegisterRoutes(v1, officeHandler, optionalAuth, authMiddleware, sysAdminMiddleware)
		reservationHttp.RegisterRoutes(v1, reservationHandler, authMiddleware, bookingLimiter)
	}

	return r
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
