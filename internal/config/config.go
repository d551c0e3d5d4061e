package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Storage and lock backends.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	StorageDriver     string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	LockDriver    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockWait      time.Duration // Bounded wait for the per-office lock
	LockTTL       time.Duration // Expiry of a Redis lock whose holder died

	BookingRateLimit float64 // Booking requests per second per user
	BookingRateBurst int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING
	if cfg.IsProduction && cfg.ProdOrigins == "" {
		return nil, fmt.Errorf("PROD_ORIGINS is required when APP_ENV=%s", PROD_STRING)
	}

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Storage backend (default: postgres)
	cfg.StorageDriver = getEnv("STORAGE_DRIVER", DriverPostgres)
	switch cfg.StorageDriver {
	case DriverPostgres:
		// Database DSN is required
		cfg.DBDSN = os.Getenv("DB_DSN")
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	ttlStr := getEnv("JWT_ACCESS_TOKEN_TTL", "15m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}
	cfg.JWTAccessTokenTTL = ttl

	// Bcrypt cost for password hashing (default: 12)
	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// Per-office lock backend (default: memory)
	cfg.LockDriver = getEnv("LOCK_DRIVER", DriverMemory)
	if cfg.LockDriver != DriverMemory && cfg.LockDriver != DriverRedis {
		return nil, fmt.Errorf("invalid LOCK_DRIVER %q", cfg.LockDriver)
	}
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.LockWait, err = getEnvAsDuration("LOCK_WAIT", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_WAIT: %w", err)
	}
	cfg.LockTTL, err = getEnvAsDuration("LOCK_TTL", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}

	cfg.BookingRateLimit, err = getEnvAsFloat("BOOKING_RATE_LIMIT", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_RATE_LIMIT: %w", err)
	}
	cfg.BookingRateBurst, err = getEnvAsInt("BOOKING_RATE_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_RATE_BURST: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration retrieves an environment variable as a time.Duration (e.g. "3s").
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("env %s must be positive", key)
	}
	return val, nil
}

// getEnvAsFloat retrieves an environment variable as a float64.
func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid number: %w", key, valStr, err)
	}
	return val, nil
}
