package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/shipsort/internal/config"
	"github.com/JonMunkholm/shipsort/internal/core"
	"github.com/JonMunkholm/shipsort/internal/logging"
	"github.com/JonMunkholm/shipsort/internal/metrics"
	"github.com/JonMunkholm/shipsort/internal/sheet"
	"github.com/JonMunkholm/shipsort/internal/store/postgres"
	"github.com/JonMunkholm/shipsort/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", logging.Err(err))
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.NoColor)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_db", cfg.Database.Enabled(),
	)

	rules, err := core.LoadRuleSet(cfg.Rules.File)
	if err != nil {
		slog.Error("failed to load rules", "file", cfg.Rules.File, logging.Err(err))
		os.Exit(1)
	}
	classifier, err := core.NewClassifier(rules)
	if err != nil {
		slog.Error("failed to compile rules", logging.Err(err))
		os.Exit(1)
	}
	slog.Info("rules loaded",
		"file", cfg.Rules.File,
		"district_rule", rules.DistrictRule,
		"window", rules.SearchWindow.Mode,
	)

	ctx := context.Background()

	var history core.RunStore
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", logging.Err(err))
			os.Exit(1)
		}
		defer pool.Close()

		store := postgres.NewRunStore(pool)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", logging.Err(err))
			os.Exit(1)
		}
		history = store
	} else {
		slog.Info("DATABASE_URL not set, keeping run history in memory")
	}

	m := metrics.New()

	service, err := core.NewService(core.ServiceConfig{
		Classifier: classifier,
		Reader:     sheet.Reader{},
		Exporter:   sheet.Exporter{},
		History:    history,
		Limiter:    core.NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		SessionTTL: cfg.Session.TTL,
		Observer:   m,
	})
	if err != nil {
		slog.Error("failed to create service", logging.Err(err))
		os.Exit(1)
	}

	server := web.NewServer(cfg, service, m)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartHistoryPruner(jobCtx, core.PrunerConfig{
		Retention:     cfg.History.Retention,
		CheckInterval: cfg.History.CheckInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for classify runs to complete", "active", status.Active)
			if err := service.Drain(shutdownCtx); err != nil {
				slog.Warn("classify runs did not complete in time", logging.Err(err))
			} else {
				slog.Info("all classify runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", logging.Err(err))
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", logging.Err(err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connect opens and pings a pgx pool sized from cfg.
func connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
