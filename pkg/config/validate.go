package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/tasktrack/pkg/debug"
)

// minSecretBytes mirrors the token service's minimum HMAC key length.
const minSecretBytes = 32

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	// auth.jwt.secret is required and must be a usable HMAC key.
	switch {
	case c.Auth.JWT.Secret == "":
		errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required"))
	default:
		if n, ok := decodedLen(c.Auth.JWT.Secret); !ok {
			errs = append(errs, fmt.Errorf("auth.jwt.secret must be base64"))
		} else if n < minSecretBytes {
			errs = append(errs, fmt.Errorf("auth.jwt.secret must decode to at least %d bytes, got %d", minSecretBytes, n))
		}
	}
	if c.Auth.JWT.ExpirationMillis <= 0 {
		errs = append(errs, fmt.Errorf("auth.jwt.expiration_millis must be > 0, got %d", c.Auth.JWT.ExpirationMillis))
	}
	if !strings.HasPrefix(c.Auth.LoginPath, "/") {
		errs = append(errs, fmt.Errorf("auth.login_path must start with \"/\", got %q", c.Auth.LoginPath))
	}

	if c.RateLimit.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.capacity must be > 0, got %d", c.RateLimit.Capacity))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window must be > 0, got %s", c.RateLimit.Window))
	}
	if c.RateLimit.MaxKeys < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_keys must be >= 0, got %d", c.RateLimit.MaxKeys))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	if _, err := debug.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func decodedLen(s string) (int, bool) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return len(b), true
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return len(b), true
	}
	return 0, false
}
