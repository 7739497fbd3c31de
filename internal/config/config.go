// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Upload   UploadConfig
	Profile  ProfileConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3000"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 by default so SSE progress streams stay open
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining analyses
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds metadata store settings.
type DatabaseConfig struct {
	// Driver selects the metadata store: sqlite or postgres (default: sqlite)
	Driver string `env:"DATABASE_DRIVER" default:"sqlite"`

	// URL is a SQLite DSN/path or a PostgreSQL connection string
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" default:"analytics.db"`

	// MaxConns and MinConns size the PostgreSQL pool
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// CacheConfig holds analytics result cache settings.
type CacheConfig struct {
	// RedisAddr is host:port of Redis; empty uses an in-process cache
	RedisAddr string `env:"REDIS_ADDR" envAlt:"REDIS_URL"`

	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" default:"0"`

	// TTL is how long analytics stay retrievable (default: 1h)
	TTL time.Duration `env:"CACHE_TTL" default:"1h"`

	// Prefix is prepended to every cache key
	Prefix string `env:"CACHE_PREFIX" default:"csvstats:analytics:"`

	// Timeout bounds each cache operation
	Timeout time.Duration `env:"CACHE_TIMEOUT" default:"5s"`
}

// UploadConfig holds upload ingress settings.
type UploadConfig struct {
	// Dir is where uploaded files are persisted before analysis
	Dir string `env:"UPLOAD_DIR" default:"uploads"`

	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel analyses (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long an upload waits for an analysis slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// KeepFiles retains uploaded files after analysis (default: true)
	KeepFiles bool `env:"UPLOAD_KEEP_FILES" default:"true"`
}

// ProfileConfig tunes CSV parsing for analysis passes.
type ProfileConfig struct {
	// Delimiter is the single-character field separator (default: ",")
	Delimiter string `env:"PROFILE_DELIMITER" default:","`

	LazyQuotes bool `env:"PROFILE_LAZY_QUOTES" default:"true"`

	// ProgressEvery is the number of rows between progress updates
	ProgressEvery int `env:"PROFILE_PROGRESS_EVERY" default:"1000"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces X-API-Key on uploads and the JSON API
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// WSOriginPatterns are extra origins allowed to open the notification socket
	WSOriginPatterns []string `env:"WS_ORIGIN_PATTERNS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Comma returns the configured delimiter as a rune.
func (c *ProfileConfig) Comma() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}
