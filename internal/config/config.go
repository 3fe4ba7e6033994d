package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration (optional upload store)
	Database DatabaseConfig

	// JWT configuration (optional bearer auth)
	JWT JWTConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig

	// Upload limits and memoization
	Upload UploadConfig

	// Analysis profile
	Analysis AnalysisConfig

	envErrors []string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
	MigrationsPath  string
}

// Enabled reports whether uploads are persisted to Postgres.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// JWTConfig holds JWT configuration. Auth is enforced only when Secret is set.
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// Enabled reports whether API requests must carry a bearer token.
func (j JWTConfig) Enabled() bool {
	return j.Secret != ""
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	UploadRPS         float64 // Stricter limit for uploads, which decode whole files
	UploadBurst       int
}

// CORSConfig holds cross-origin settings for browser dashboards
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// UploadConfig bounds accepted uploads and the decoded-table cache
type UploadConfig struct {
	MaxBytes  int64
	CacheSize int
}

// AnalysisConfig points at an optional YAML analysis profile
type AnalysisConfig struct {
	ProfilePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := FromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv builds a Config from the current environment without loading .env or validating.
// Malformed values fall back to their defaults and are reported by Validate.
func FromEnv() *Config {
	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:            env.text("SERVER_PORT", ":8080"),
			ReadTimeout:     env.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    env.duration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     env.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    env.intValue("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.intValue("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: env.duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     env.boolValue("DB_AUTO_MIGRATE", true),
			MigrationsPath:  env.text("DB_MIGRATIONS_PATH", "migrations"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: env.duration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled:           env.boolValue("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: env.floatValue("RATE_LIMIT_RPS", 10),
			BurstSize:         env.intValue("RATE_LIMIT_BURST", 20),
			UploadRPS:         env.floatValue("RATE_LIMIT_UPLOAD_RPS", 0.5),
			UploadBurst:       env.intValue("RATE_LIMIT_UPLOAD_BURST", 3),
		},
		CORS: CORSConfig{
			AllowedOrigins: env.list("CORS_ALLOWED_ORIGINS", []string{}),
			MaxAge:         env.intValue("CORS_MAX_AGE", 300),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  env.list("WS_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:  env.intValue("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: env.intValue("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    env.duration("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        env.duration("WS_PONG_WAIT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  env.text("LOG_LEVEL", "info"),
			Format: env.text("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        env.text("APP_NAME", "ticket-insights"),
			Version:     env.text("APP_VERSION", "dev"),
			Environment: env.text("APP_ENV", "development"),
		},
		Upload: UploadConfig{
			MaxBytes:  env.int64Value("UPLOAD_MAX_BYTES", 32<<20),
			CacheSize: env.intValue("UPLOAD_CACHE_SIZE", 8),
		},
		Analysis: AnalysisConfig{
			ProfilePath: os.Getenv("ANALYSIS_PROFILE_PATH"),
		},
	}
	cfg.envErrors = env.errs
	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	errs := append([]string(nil), c.envErrors...)

	// Security validations
	if c.App.Environment == "production" {
		if len(c.JWT.Secret) < 32 {
			errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
		}

		if len(c.WebSocket.AllowedOrigins) == 0 {
			errs = append(errs, "WS_ALLOWED_ORIGINS must be set in production")
		}
	}

	// Logical validations
	if c.Database.Enabled() && c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}

	if c.Database.Enabled() && c.Database.AutoMigrate && c.Database.MigrationsPath == "" {
		errs = append(errs, "DB_MIGRATIONS_PATH is required when DB_AUTO_MIGRATE is set")
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, "UPLOAD_MAX_BYTES must be positive")
	}

	if c.Upload.CacheSize <= 0 {
		errs = append(errs, "UPLOAD_CACHE_SIZE must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.UploadRPS <= 0) {
		errs = append(errs, "rate limits must be positive when RATE_LIMIT_ENABLED is set")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// envReader reads typed environment variables, remembering the ones it could not parse.
type envReader struct {
	errs []string
}

func lookup[T any](env *envReader, key string, defaultValue T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := parse(raw)
	if err != nil {
		env.errs = append(env.errs, fmt.Sprintf("%s: cannot parse %q", key, raw))
		return defaultValue
	}
	return v
}

func (e *envReader) text(key, defaultValue string) string {
	return lookup(e, key, defaultValue, func(s string) (string, error) { return s, nil })
}

func (e *envReader) intValue(key string, defaultValue int) int {
	return lookup(e, key, defaultValue, strconv.Atoi)
}

func (e *envReader) int64Value(key string, defaultValue int64) int64 {
	return lookup(e, key, defaultValue, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func (e *envReader) floatValue(key string, defaultValue float64) float64 {
	return lookup(e, key, defaultValue, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (e *envReader) boolValue(key string, defaultValue bool) bool {
	return lookup(e, key, defaultValue, strconv.ParseBool)
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	return lookup(e, key, defaultValue, time.ParseDuration)
}

// list splits a comma-separated variable, dropping blank entries.
func (e *envReader) list(key string, defaultValue []string) []string {
	return lookup(e, key, defaultValue, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) == 0 {
			return defaultValue, nil
		}
		return out, nil
	})
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, DB: %s, Auth: %v, RateLimit: %v, Profile: %q, Environment: %s}",
		c.Server.Port,
		redactURL(c.Database.URL),
		c.JWT.Enabled(),
		c.RateLimit.Enabled,
		c.Analysis.ProfilePath,
		c.App.Environment,
	)
}

// redactURL hides the password of a database URL
func redactURL(raw string) string {
	if raw == "" {
		return "memory"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[REDACTED]"
	}
	return u.Redacted()
}
