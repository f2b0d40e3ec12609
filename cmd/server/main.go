// Command server runs the JobRecruit HTTP API.
//
// Startup order:
//
//  1. configuration (.env + environment) and the slog JSON logger
//  2. schema migration when AUTO_MIGRATE is set
//  3. connection pool with logging, metrics and tracing hooks
//  4. services, gin router and the HTTP server
//  5. graceful shutdown on SIGINT / SIGTERM
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/B-Mitchell/JobRecruit/api"
	"github.com/B-Mitchell/JobRecruit/config"
	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/migrations"
	"github.com/B-Mitchell/JobRecruit/service"
	"github.com/B-Mitchell/JobRecruit/telemetry"

	// database/sql drivers; DB_DRIVER picks one.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	// ── 1. Configuration and logger ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// ── 2. Migrations ─────────────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.DBDriver, cfg.DatabaseURL, logger); err != nil {
			fatalf("auto-migrate: %v", err)
		}
	}

	// ── 3. Connection pool ────────────────────────────────────────────────
	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		fatalf("metrics: %v", err)
	}

	dbCfg := cfg.DB()
	dbCfg.Hooks = []db.Hook{
		db.NewLogHook(db.LogHookConfig{
			Logger:             logger,
			SlowQueryThreshold: cfg.SlowQuery,
			LogArgs:            cfg.LogQueryArgs,
		}),
		db.NewMetricsHook(metrics),
		db.NewTracingHook(telemetry.NewTracer(nil, cfg.DBDriver)),
	}

	database, err := openWithRetry(dbCfg)
	if err != nil {
		fatalf("database: %v", err)
	}
	defer database.Close()
	logger.Info("database connected", "driver", cfg.DBDriver, "max_open_conns", cfg.MaxOpenConns)

	// ── 4. HTTP server ────────────────────────────────────────────────────
	gin.SetMode(gin.ReleaseMode)
	svc := service.New(database, logger)
	router := api.NewRouter(api.NewHandler(svc, database, logger), api.Options{
		IdentityHeader: cfg.IdentityHeader,
		EmailHeader:    cfg.EmailHeader,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, "jobrecruit"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ── 5. Graceful shutdown ──────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err, ok := <-errCh:
		if ok {
			logger.Error("http server failed", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// openWithRetry keeps trying while the database is still starting up.
func openWithRetry(cfg db.Config) (*db.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var database *db.DB
	err := db.WithRetry(ctx, db.RetryConfig{
		MaxAttempts: 10,
		Delay:       2 * time.Second,
		RetryOn:     func(error) bool { return ctx.Err() == nil },
	}, func() error {
		var err error
		database, err = db.Open(cfg)
		if err != nil {
			slog.Warn("database not ready", "error", err)
		}
		return err
	})
	return database, err
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
