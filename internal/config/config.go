// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server      ServerConfig
	Upload      UploadConfig
	Batch       BatchConfig
	Auth        AuthConfig
	Certificate CertificateConfig
	Security    SecurityConfig
	Logging     LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds candidate file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel uploads (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an upload slot (default: 10s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"10s"`

	// Timeout is the maximum duration for decoding one file (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`

	// ErrorPreview is how many validation errors are listed before the rest
	// are summarised (default: 5)
	ErrorPreview int `env:"UPLOAD_ERROR_PREVIEW" default:"5"`
}

// BatchConfig holds certificate batch run settings.
type BatchConfig struct {
	// ItemDelay is a pause after each generated certificate (default: 0)
	ItemDelay time.Duration `env:"BATCH_ITEM_DELAY" default:"0s"`

	// CandidateTimeout bounds the certificates of one candidate; 0 disables it
	// (default: 0)
	CandidateTimeout time.Duration `env:"BATCH_CANDIDATE_TIMEOUT" default:"0s"`
}

// AuthConfig holds the admin gate settings.
type AuthConfig struct {
	// Enabled puts every page behind the admin password (default: true)
	Enabled bool `env:"AUTH_ENABLED" default:"true"`

	// AdminPassword is the shared password; required when Enabled
	AdminPassword string `env:"ADMIN_PASSWORD" envAlt:"AUTH_PASSWORD"`

	// SessionTTL is how long a login lasts (default: 12h)
	SessionTTL time.Duration `env:"SESSION_TTL" default:"12h"`
}

// CertificateConfig holds certificate rendering settings.
type CertificateConfig struct {
	// AssetsDir holds header.png, badge.png and sign.png (default: assets)
	AssetsDir string `env:"CERT_ASSETS_DIR" default:"assets"`

	// OutputDir is where the CLI writes certificates (default: certificates)
	OutputDir string `env:"CERT_OUTPUT_DIR" default:"certificates"`

	// Organisation overrides the issuing organisation name
	Organisation string `env:"CERT_ORGANISATION"`

	// ShortName overrides the organisation abbreviation
	ShortName string `env:"CERT_SHORT_NAME"`

	// Signatory overrides the name printed under the signature
	Signatory string `env:"CERT_SIGNATORY"`

	// SignatoryTitle overrides the signatory's title
	SignatoryTitle string `env:"CERT_SIGNATORY_TITLE"`

	// Cohort overrides the cohort line, e.g. "Cohort 1 on the 20th July, 2025"
	Cohort string `env:"CERT_COHORT"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}
