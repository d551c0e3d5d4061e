package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/office-booking-backend/internal/app"
	"github.com/nekogravitycat/office-booking-backend/internal/config"
	"github.com/nekogravitycat/office-booking-backend/internal/db"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Connect DB
	var pool *pgxpool.Pool
	if cfg.StorageDriver == config.DriverPostgres {
		pool, err = db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		defer pool.Close()
	} else {
		log.Printf("using in-memory storage; data is lost on exit")
	}

	// Connect Redis
	var rdb *redis.Client
	if cfg.LockDriver == config.DriverRedis {
		rdb, err = db.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()
	}

	// Init modules
	container := app.NewContainer(app.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		DBPool:           pool,
		RedisClient:      rdb,
		JWTSecret:        cfg.JWTSecret,
		JWTTTL:           cfg.JWTAccessTokenTTL,
		PasswordCost:     cfg.BcryptCost,
		LockWait:         cfg.LockWait,
		LockTTL:          cfg.LockTTL,
		BookingRateLimit: cfg.BookingRateLimit,
		BookingRateBurst: cfg.BookingRateBurst,
	})

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited gracefully")
}
