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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sustainix/sustainix/internal/config"
	"github.com/sustainix/sustainix/internal/convert"
	"github.com/sustainix/sustainix/internal/logging"
	"github.com/sustainix/sustainix/internal/store"
	"github.com/sustainix/sustainix/internal/taxonomy"
	"github.com/sustainix/sustainix/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"taxonomy", cfg.Report.TaxonomyPath,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
	)

	tax, err := taxonomy.LoadFile(cfg.Report.TaxonomyPath)
	if err != nil {
		slog.Error("failed to load taxonomy", "path", cfg.Report.TaxonomyPath, "error", err)
		os.Exit(1)
	}
	taxonomy.Register(tax)
	slog.Info("taxonomy loaded",
		"entry_point", tax.EntryPoint(),
		"version", tax.Version(),
		"concepts", tax.ConceptCount(),
	)

	defaults, err := convert.LoadDefaults(cfg.Report.DefaultsPath)
	if err != nil {
		slog.Error("failed to load conversion defaults", "path", cfg.Report.DefaultsPath, "error", err)
		os.Exit(1)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	runs := store.New(pool)
	if err := runs.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure history schema", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, tax, defaults, runs)

	// Context for background work inside the server (job pruning)
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(jobCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
