// Command server runs the tasktrack API.
//
// Configuration is read from a YAML file (see -config) with TASKTRACK_*
// environment overrides:
//
//	TASKTRACK_CONFIG      - Path to the config file
//	TASKTRACK_PORT        - Listen port (default: 8080)
//	TASKTRACK_STORAGE     - Storage type: "memory" or "postgres" (default: "memory")
//	TASKTRACK_JWT_SECRET  - Base64 HMAC key, at least 256 bits (required)
//	TASKTRACK_SEED        - Seed demo users and tasks into an empty store
//	TASKTRACK_DEBUG       - Debug categories: auth, ratelimit, tasks, storage, all
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rhuss/tasktrack/pkg/auth"
	"github.com/rhuss/tasktrack/pkg/auth/apikey"
	"github.com/rhuss/tasktrack/pkg/auth/jwt"
	"github.com/rhuss/tasktrack/pkg/auth/login"
	"github.com/rhuss/tasktrack/pkg/config"
	"github.com/rhuss/tasktrack/pkg/debug"
	"github.com/rhuss/tasktrack/pkg/ratelimit"
	"github.com/rhuss/tasktrack/pkg/storage/memory"
	"github.com/rhuss/tasktrack/pkg/storage/postgres"
	"github.com/rhuss/tasktrack/pkg/tasks"
	transporthttp "github.com/rhuss/tasktrack/pkg/transport/http"
	"github.com/rhuss/tasktrack/pkg/users"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// store is what the server needs from a storage backend.
type store interface {
	users.Store
	tasks.Store
	HealthCheck(ctx context.Context) error
	Close() error
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	debug.Configure(cfg.Logging.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Seed.Enabled {
		if err := seed(ctx, st, st, logger); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	tokens, err := jwt.New(jwt.Config{
		Secret:     cfg.Auth.JWT.Secret,
		Expiration: cfg.Auth.JWT.Expiration(),
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	limiter, err := ratelimit.New(ratelimit.Config{
		Capacity: cfg.RateLimit.Capacity,
		Window:   cfg.RateLimit.Window,
		MaxKeys:  cfg.RateLimit.MaxKeys,
	})
	if err != nil {
		return fmt.Errorf("creating rate limiter: %w", err)
	}

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	var authenticators []auth.Authenticator
	if metricsPath != "" {
		if a := apikey.New(cfg.Auth.MetricsToken, metricsPath); a != nil {
			authenticators = append(authenticators, a)
		}
	}
	authenticators = append(authenticators, jwt.NewAuthenticator(tokens, users.NewIdentities(st)))
	chain := &auth.AuthChain{Authenticators: authenticators}

	loginSvc, err := login.NewService(st, tokens, logger)
	if err != nil {
		return fmt.Errorf("creating login service: %w", err)
	}

	svc := transporthttp.Services{
		Tasks:  tasks.NewService(st, st, logger),
		Login:  loginSvc,
		Health: st,
	}

	srv := transporthttp.NewServer(svc,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLoginPath(cfg.Auth.LoginPath),
		transporthttp.WithMetricsPath(metricsPath),
		transporthttp.WithLogger(logger),
		transporthttp.WithMiddleware(
			ratelimit.LoginGuard(limiter, cfg.Auth.LoginPath, logger),
			auth.Middleware(chain, logger),
		),
	)

	logger.Info("tasktrack configured",
		"storage", cfg.Storage.Type,
		"login_path", cfg.Auth.LoginPath,
		"rate_limit_capacity", cfg.RateLimit.Capacity,
		"rate_limit_window", cfg.RateLimit.Window,
		"metrics_path", metricsPath,
		"metrics_token", cfg.Auth.MetricsToken != "",
	)

	return srv.ListenAndServeContext(ctx)
}

func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store, error) {
	switch cfg.Type {
	case "postgres":
		pg, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		logger.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return pg, nil
	default:
		logger.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	}
}

func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	// Validated by config.Load; an unknown level falls back to info.
	level, _ := debug.ParseLevel(cfg.Level)

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
