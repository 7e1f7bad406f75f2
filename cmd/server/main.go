package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"jccadmin/internal/auth"
	"jccadmin/internal/config"
	"jccadmin/internal/database"
	"jccadmin/internal/department"
	"jccadmin/internal/handler"
	"jccadmin/internal/jwtauth"
	"jccadmin/internal/logging"
	"jccadmin/internal/member"
	"jccadmin/internal/metrics"
	"jccadmin/internal/renumber"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(os.Stdout, cfg.Environment, cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Warn("error closing database connection", "error", err)
		}
	}()
	slog.Info("database connection established", "driver", db.Driver)

	ctx := context.Background()
	if err := db.MigrateUp(ctx); err != nil {
		return err
	}
	version, dirty, err := db.MigrateVersion(ctx)
	switch {
	case err != nil:
		slog.Warn("failed to get migration version", "error", err)
	case dirty:
		slog.Warn("database is in dirty state: a previous migration failed and manual intervention is required", "version", version)
	default:
		slog.Info("database migrations complete", "version", version)
	}

	var met *metrics.Metrics
	if cfg.MetricsEnabled {
		met = metrics.New()
	}

	tokens, err := tokenStore(cfg.Auth)
	if err != nil {
		return err
	}

	// Department creates and renumbering share one lock.
	var deptLock sync.Mutex
	deps := handler.Deps{
		Config: cfg,
		Store:  db,
		Tokens: tokens,
		Departments: department.NewManager(
			department.NewDatastore(db.Handle()),
			department.WithLocker(&deptLock),
			department.WithMetrics(met),
		),
		Members: member.NewManager(
			member.NewDatastore(db.Handle()),
			member.WithMetrics(met),
		),
		Renumber: renumber.NewCoordinator(db,
			renumber.WithLocker(&deptLock),
			renumber.WithMetrics(met),
		),
		Metrics: met,
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, deps)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewServer(mux, met),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("JCC admin server starting", "port", cfg.Port, "env", cfg.Environment)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-shutdown:
		slog.Info("initiating graceful shutdown", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("graceful shutdown failed, forcing shutdown", "error", err)
			if err := server.Close(); err != nil {
				return err
			}
		}

		slog.Info("server shutdown complete")
		return nil
	}
}

// tokenStore accepts the static admin tokens and, when an issuer is
// configured, JWTs signed by it.
func tokenStore(cfg config.AuthConfig) (auth.TokenStore, error) {
	static := auth.NewStaticTokenStore(cfg.AdminTokens)
	if !cfg.JWTEnabled() {
		return static, nil
	}

	verifier, err := jwtauth.NewVerifier(jwtauth.Config{
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		Permission: cfg.JWTPermission,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure jwt auth: %w", err)
	}
	slog.Info("jwt admin auth enabled", "issuer", cfg.JWTIssuer, "static_tokens", len(cfg.AdminTokens))
	return auth.MultiStore{static, verifier}, nil
}
