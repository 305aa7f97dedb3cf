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
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080" min:"1" max:"65535"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s" min:"0s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s" min:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" min:"0s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" min:"1ms"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s" min:"1ms"`
}

// SessionConfig holds file registration and session lifetime settings.
type SessionConfig struct {
	// MaxFiles is the number of files one session may hold (default: 100)
	MaxFiles int `env:"SESSION_MAX_FILES" default:"100" min:"1"`

	// MaxFileSize is the maximum allowed file size in bytes; KB/MB/GB suffixes
	// are accepted (default: 100MB)
	MaxFileSize int64 `env:"SESSION_MAX_FILE_SIZE" envAlt:"UPLOAD_MAX_FILE_SIZE" default:"100MB" size:"bytes" min:"1"`

	// ParseWorkers bounds how many documents of a batch are parsed at once (default: 4)
	ParseWorkers int `env:"SESSION_PARSE_WORKERS" default:"4" min:"1"`

	// IdleTimeout is how long an untouched session is kept (default: 1h)
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"1h" min:"1s"`

	// ReapInterval is how often idle sessions are evicted (default: 5m)
	ReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" default:"5m" min:"1s"`

	// MaxConcurrent is the number of batches registered in parallel server-wide (default: 5)
	MaxConcurrent int `env:"SESSION_MAX_CONCURRENT" envAlt:"UPLOAD_MAX_CONCURRENT" default:"5" min:"1"`

	// MaxWaitTime is how long a batch waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"SESSION_MAX_WAIT_TIME" envAlt:"UPLOAD_MAX_WAIT_TIME" default:"30s" min:"1ms"`

	// PreviewRows is how many combined rows the dashboard shows (default: 50)
	PreviewRows int `env:"SESSION_PREVIEW_ROWS" default:"50" min:"0"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per client IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs or addresses
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info" oneof:"debug,info,warn,error"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text" oneof:"text,json"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
