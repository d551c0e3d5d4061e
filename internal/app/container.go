package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/office-booking-backend/internal/api"
	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
	"github.com/nekogravitycat/office-booking-backend/internal/store/memory"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool // nil selects the in-memory store
	RedisClient  *redis.Client // nil selects the in-process lock
	JWTSecret    string
	JWTTTL       time.Duration
	PasswordCost int
	Clock        clock.Clock // defaults to the system clock

	LockWait time.Duration
	LockTTL  time.Duration

	BookingRateLimit float64
	BookingRateBurst int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router             *gin.Engine
	JWTManager         *auth.JWTManager
	UserService        user.Service
	OfficeService      office.Service
	ReservationService reservation.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.PasswordCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}

	if cfg.LockWait <= 0 {
		cfg.LockWait = 3 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}
	if cfg.BookingRateLimit <= 0 || cfg.BookingRateBurst <= 0 {
		cfg.BookingRateLimit, cfg.BookingRateBurst = 5, 10
	}

	// Per-office lock shared by booking and office deletion
	var locker lock.Locker
	if cfg.RedisClient != nil {
		locker = lock.NewRedisLocker(cfg.RedisClient, lock.RedisOptions{
			Prefix: "office-booking:",
			TTL:    cfg.LockTTL,
			Wait:   cfg.LockWait,
		})
	} else {
		locker = lock.NewMemoryLocker(cfg.LockWait)
	}

	// Repositories
	var (
		userRepo        user.Repository
		officeRepo      office.Repository
		reservationRepo reservation.Repository
	)
	if cfg.DBPool != nil {
		userRepo = user.NewPgxRepository(cfg.DBPool)
		officeRepo = office.NewPgxRepository(cfg.DBPool)
		reservationRepo = reservation.NewPgxRepository(cfg.DBPool)
	} else {
		userRepo, officeRepo, reservationRepo = memory.NewStore().Repos()
	}

	// User Module
	userService := user.NewService(userRepo, passwordHasher)

	// Office Module
	officeService := office.NewService(officeRepo, locker)

	// Reservation Module
	reservationService := reservation.NewService(reservationRepo, officeService, locker, clk)

	// API Router Config
	routerParams := api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		UserService:        userService,
		OfficeService:      officeService,
		ReservationService: reservationService,
		JWTManager:         jwtManager,
		BookingRateLimit:   cfg.BookingRateLimit,
		BookingRateBurst:   cfg.BookingRateBurst,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:             router,
		JWTManager:         jwtManager,
		UserService:        userService,
		OfficeService:      officeService,
		ReservationService: reservationService,
	}
}
