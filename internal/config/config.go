package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Rating       RatingConfig
	Cache        CacheConfig
	Jobs         JobsConfig
	Seed         SeedConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// DatabaseConfig holds SQL connection values.
type DatabaseConfig struct {
	Driver         string
	DSN            string
	MaxConns       int
	MinConns       int
	RunMigrations  bool
	ConnMaxIdleSec int
	ConnMaxLifeSec int
}

// RedisConfig holds Redis connection values. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Output string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds outbound notification endpoints.
type NotificationConfig struct {
	WebhookURL            string
	WebhookTimeoutSeconds int
}

// RatingConfig tunes the technician leaderboard.
type RatingConfig struct {
	ResolutionTargetHours int
}

// CacheConfig controls analytics and rating caching.
type CacheConfig struct {
	TTLSeconds int
	KeyPrefix  string
}

// JobsConfig controls background jobs.
type JobsConfig struct {
	OverdueScanSpec string
}

// SeedConfig controls initial data.
type SeedConfig struct {
	Enabled         bool
	DefaultPassword string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := getEnv("DB_DRIVER", DriverSQLite)
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: expected %q or %q", driver, DriverSQLite, DriverPostgres)
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" && driver == DriverSQLite {
		dsn = "helpdesk.db"
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Driver:         driver,
			DSN:            dsn,
			MaxConns:       getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:       getEnvAsInt("DB_MIN_CONNS", 2),
			RunMigrations:  getEnvAsBool("DB_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: getEnvAsInt("DB_CONN_MAX_IDLE_SECONDS", 30),
			ConnMaxLifeSec: getEnvAsInt("DB_CONN_MAX_LIFE_SECONDS", 300),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			WebhookURL:            getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookTimeoutSeconds: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 5),
		},
		Rating: RatingConfig{
			ResolutionTargetHours: getEnvAsInt("RATING_RESOLUTION_TARGET_HOURS", 72),
		},
		Cache: CacheConfig{
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 60),
			KeyPrefix:  getEnv("CACHE_KEY_PREFIX", "helpdesk"),
		},
		Jobs: JobsConfig{
			OverdueScanSpec: getEnv("JOBS_OVERDUE_SCAN_SPEC", "@every 1h"),
		},
		Seed: SeedConfig{
			Enabled:         getEnvAsBool("SEED_ENABLED", true),
			DefaultPassword: getEnv("SEED_DEFAULT_PASSWORD", "123456"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ResolutionTarget returns how long a request may stay open before it counts as overdue.
func (r RatingConfig) ResolutionTarget() time.Duration {
	if r.ResolutionTargetHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(r.ResolutionTargetHours) * time.Hour
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// WebhookTimeout returns the outbound webhook timeout.
func (n NotificationConfig) WebhookTimeout() time.Duration {
	if n.WebhookTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.WebhookTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
