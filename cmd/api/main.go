package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"akstore/internal/auth"
	"akstore/internal/config"
	"akstore/internal/db"
	"akstore/internal/seed"
	"akstore/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg)
	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	app, system, err := openDatabases(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer app.Close()
	if system != app {
		defer system.Close()
	}

	if err := app.Migrate(ctx, db.SetApp); err != nil {
		slog.Error("failed to run migrations", "set", db.SetApp, "error", err)
		os.Exit(1)
	}
	if err := system.Migrate(ctx, db.SetSystem); err != nil {
		slog.Error("failed to run migrations", "set", db.SetSystem, "error", err)
		os.Exit(1)
	}
	if cfg.Seed {
		if err := seed.Apply(ctx, app, system); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	jwtMgr := auth.NewJWTManager(auth.JWTConfig{
		Issuer:   cfg.JWTIssuer,
		Secret:   cfg.JWTSecret,
		TTLHours: cfg.SessionTTLHours,
	})

	r := server.NewRouter(server.Deps{
		App:               app,
		System:            system,
		JWT:               jwtMgr,
		StrictTransitions: cfg.StrictOrderTransitions,
		CORSOrigins:       cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr, "driver", cfg.DBDriver, "split_databases", cfg.SplitDatabases())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited")
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.AppEnv == "prod" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// openDatabases returns the same handle twice unless SYSTEM_DATABASE_URL
// points somewhere else.
func openDatabases(ctx context.Context, cfg config.Config) (*db.DB, *db.DB, error) {
	app, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.SplitDatabases() {
		return app, app, nil
	}
	system, err := db.Open(ctx, cfg.DBDriver, cfg.SystemDatabaseURL, cfg.DBMaxConns)
	if err != nil {
		_ = app.Close()
		return nil, nil, err
	}
	return app, system, nil
}
