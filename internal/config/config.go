package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tendant/turnaplay-teams/internal/auditlog"
	"github.com/tendant/turnaplay-teams/pkg/repository"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	Validation      ValidationConfig
	Audit           AuditConfig
	Telemetry TelemetryConfig

	// AdminOverride lets admin accounts run captain-only operations.
	AdminOverride bool `env:"ADMIN_OVERRIDE" envDefault:"false"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr            string        `env:"SERVER_ADDR" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig selects and configures the SQL backend.
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"25432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"turnaplay"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// SQLitePath is used when Driver is sqlite.
	SQLitePath string `env:"DB_SQLITE_PATH" envDefault:"./data/teams.db"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`

	// AutoMigrate applies the embedded schema at startup.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// JWTConfig holds access-token verification settings. Tokens are issued by
// the identity provider; this service only verifies them.
type JWTConfig struct {
	Secret string `env:"JWT_SECRET"`
	Issuer string `env:"JWT_ISSUER" envDefault:"simple-idm"`
}

// RateLimitConfig limits requests per client IP. Mutations and queries
// have separate budgets.
type RateLimitConfig struct {
	Enabled          bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	MutationRequests int           `env:"RATE_LIMIT_MUTATION_REQUESTS" envDefault:"30"`
	MutationWindow   time.Duration `env:"RATE_LIMIT_MUTATION_WINDOW" envDefault:"1m"`
	QueryRequests    int           `env:"RATE_LIMIT_QUERY_REQUESTS" envDefault:"120"`
	QueryWindow      time.Duration `env:"RATE_LIMIT_QUERY_WINDOW" envDefault:"1m"`
}

// SecurityHeadersConfig holds the OWASP response headers. Empty values are
// not sent.
type SecurityHeadersConfig struct {
	Enabled            bool   `env:"SECURITY_HEADERS_ENABLED" envDefault:"true"`
	CSP                string `env:"SECURITY_CSP" envDefault:"default-src 'none'; frame-ancestors 'none'"`
	HSTSMaxAge         int    `env:"SECURITY_HSTS_MAX_AGE" envDefault:"0"`
	FrameOptions       string `env:"SECURITY_FRAME_OPTIONS" envDefault:"DENY"`
	ContentTypeOptions string `env:"SECURITY_CONTENT_TYPE_OPTIONS" envDefault:"nosniff"`
	XSSProtection      string `env:"SECURITY_XSS_PROTECTION" envDefault:"0"`
	ReferrerPolicy     string `env:"SECURITY_REFERRER_POLICY" envDefault:"no-referrer"`
	PermissionsPolicy  string `env:"SECURITY_PERMISSIONS_POLICY"`
	CacheControl       string `env:"SECURITY_CACHE_CONTROL" envDefault:"no-store"`
}

// ValidationConfig bounds request input.
type ValidationConfig struct {
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// AuditConfig selects where committed team events are recorded.
type AuditConfig struct {
	Mode string `env:"AUDIT_LOG" envDefault:"all"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string  `env:"OTEL_SERVICE_NAME" envDefault:"turnaplay-teams"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLE_RATIO" envDefault:"1"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Audit.Mode = strings.ToLower(strings.TrimSpace(cfg.Audit.Mode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces required values and ranges.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	dialect, err := repository.ParseDialect(c.Database.Driver)
	if err != nil {
		return fmt.Errorf("DB_DRIVER: %w", err)
	}
	if dialect == repository.DialectSQLite && strings.TrimSpace(c.Database.SQLitePath) == "" {
		return errors.New("DB_SQLITE_PATH is required for the sqlite driver")
	}
	switch c.Audit.Mode {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("AUDIT_LOG must be one of all, db, log, off; got %q", c.Audit.Mode)
	}
	if c.RateLimit.Enabled {
		rl := c.RateLimit
		if rl.MutationRequests <= 0 || rl.MutationWindow <= 0 || rl.QueryRequests <= 0 || rl.QueryWindow <= 0 {
			return errors.New("RATE_LIMIT_* requests and windows must be positive")
		}
	}
	if c.Validation.MaxRequestBodySize <= 0 {
		return errors.New("MAX_REQUEST_BODY_SIZE must be positive")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLE_RATIO must be between 0 and 1")
	}
	return nil
}

// DB returns the repository connection settings.
func (c *Config) DB() repository.Config {
	dialect, _ := repository.ParseDialect(c.Database.Driver)
	return repository.Config{
		Driver:          dialect,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		DBName:          c.Database.Name,
		SSLMode:         c.Database.SSLMode,
		Path:            c.Database.SQLitePath,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Addr, c.Server.Port)
}

// HasTracing returns true if an OTLP endpoint is configured.
func (c *Config) HasTracing() bool {
	return c.Telemetry.OTLPEndpoint != ""
}
