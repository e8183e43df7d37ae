// Package config provides unified configuration for the tasktrack server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (TASKTRACK_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the tasktrack server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
	Seed          SeedConfig          `yaml:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MiB
}

// StorageConfig holds user and task persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	LoginPath        string    `yaml:"login_path"` // default: "/api/v1/auth/login"
	JWT              JWTConfig `yaml:"jwt"`
	MetricsToken     string    `yaml:"metrics_token"`      // optional static scrape token
	MetricsTokenFile string    `yaml:"metrics_token_file"` // _file variant for metrics_token
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret           string `yaml:"secret"`            // base64, at least 256 bits
	SecretFile       string `yaml:"secret_file"`       // _file variant for secret
	ExpirationMillis int64  `yaml:"expiration_millis"` // default: 3600000
}

// Expiration returns the token lifetime as a duration.
func (j JWTConfig) Expiration() time.Duration {
	return time.Duration(j.ExpirationMillis) * time.Millisecond
}

// RateLimitConfig holds login throttling settings.
type RateLimitConfig struct {
	Capacity int           `yaml:"capacity"` // default: 10
	Window   time.Duration `yaml:"window"`   // default: 60s
	MaxKeys  int           `yaml:"max_keys"` // default: 100000, 0 = unbounded
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig selects the slog handler and debug categories.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error; default: info
	Format string `yaml:"format"` // text or json; default: text

	// Debug lists debug categories (auth, ratelimit, tasks, storage, all).
	// TASKTRACK_DEBUG overrides it.
	Debug string `yaml:"debug"`
}

// SeedConfig controls the development data seeder.
type SeedConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Auth: AuthConfig{
			LoginPath: "/api/v1/auth/login",
			JWT: JWTConfig{
				ExpirationMillis: 3600000,
			},
		},
		RateLimit: RateLimitConfig{
			Capacity: 10,
			Window:   60 * time.Second,
			MaxKeys:  100000,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
