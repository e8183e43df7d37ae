package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, TASKTRACK_CONFIG env, ./config.yaml, /etc/tasktrack/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. TASKTRACK_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/tasktrack/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("TASKTRACK_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/tasktrack/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps TASKTRACK_* environment variables to config
// fields. Unparseable numeric values are reported, not ignored.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"TASKTRACK_STORAGE":       &cfg.Storage.Type,
		"TASKTRACK_POSTGRES_DSN":  &cfg.Storage.Postgres.DSN,
		"TASKTRACK_LOGIN_PATH":    &cfg.Auth.LoginPath,
		"TASKTRACK_JWT_SECRET":    &cfg.Auth.JWT.Secret,
		"TASKTRACK_METRICS_TOKEN": &cfg.Auth.MetricsToken,
		"TASKTRACK_METRICS_PATH":  &cfg.Observability.Metrics.Path,
		"TASKTRACK_LOG_LEVEL":     &cfg.Logging.Level,
		"TASKTRACK_LOG_FORMAT":    &cfg.Logging.Format,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	var errs []string
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q is not an integer", name, v))
				return
			}
			*dst = n
		}
	}
	setBool := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q is not a boolean", name, v))
				return
			}
			*dst = b
		}
	}

	setInt("TASKTRACK_PORT", &cfg.Server.Port)
	setInt("TASKTRACK_RATE_LIMIT_CAPACITY", &cfg.RateLimit.Capacity)
	setInt("TASKTRACK_RATE_LIMIT_MAX_KEYS", &cfg.RateLimit.MaxKeys)
	setBool("TASKTRACK_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)
	setBool("TASKTRACK_SEED", &cfg.Seed.Enabled)

	if v := os.Getenv("TASKTRACK_JWT_EXPIRATION_MILLIS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("TASKTRACK_JWT_EXPIRATION_MILLIS=%q is not an integer", v))
		} else {
			cfg.Auth.JWT.ExpirationMillis = n
		}
	}
	if v := os.Getenv("TASKTRACK_RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("TASKTRACK_RATE_LIMIT_WINDOW=%q is not a duration", v))
		} else {
			cfg.RateLimit.Window = d
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	refs := []struct {
		name  string
		file  string
		value *string
	}{
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"auth.jwt.secret_file", cfg.Auth.JWT.SecretFile, &cfg.Auth.JWT.Secret},
		{"auth.metrics_token_file", cfg.Auth.MetricsTokenFile, &cfg.Auth.MetricsToken},
	}

	for _, ref := range refs {
		if ref.file == "" || *ref.value != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.value = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
