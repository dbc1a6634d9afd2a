package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/juriscope/internal/application"
	appanalysis "github.com/bryanwahyu/juriscope/internal/application/analysis"
	appuploads "github.com/bryanwahyu/juriscope/internal/application/uploads"
	"github.com/bryanwahyu/juriscope/internal/config"
	"github.com/bryanwahyu/juriscope/internal/domain/incidents"
	"github.com/bryanwahyu/juriscope/internal/domain/reports"
	"github.com/bryanwahyu/juriscope/internal/infra/ai/openai"
	"github.com/bryanwahyu/juriscope/internal/infra/db/migrations"
	mysqlp "github.com/bryanwahyu/juriscope/internal/infra/db/mysql"
	"github.com/bryanwahyu/juriscope/internal/infra/db/postgres"
	"github.com/bryanwahyu/juriscope/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/juriscope/internal/infra/storage"
	"github.com/bryanwahyu/juriscope/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkers := map[string]middleware.HealthChecker{}
	svc := &appanalysis.Service{
		Clock:          application.SystemClock{},
		Logger:         logger,
		Timeout:        cfg.LLMTimeout(),
		MaxSuggestions: cfg.Analysis.MaxSuggestions,
	}

	// persistence is optional
	if cfg.Database.Driver != "" {
		db, rep, inc, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		svc.Reports, svc.Incidents = rep, inc
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		logger.Info("database connected", "driver", cfg.Database.Driver)
	} else {
		logger.Warn("no database configured, reports are not stored")
	}

	uploadsSvc := &appuploads.Service{Clock: application.SystemClock{}, Logger: logger}
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		uploadsSvc.Store = store
		checkers["storage"] = store
	}

	keys := openai.NewKeyRing(cfg.LLM.APIKeys...)
	if keys.Len() > 0 {
		svc.AI = openai.NewClient(keys, cfg.LLM.BaseURL, cfg.LLM.Model)
		logger.Info("llm configured", "model", cfg.LLM.Model, "keys", keys.Len())
	} else {
		logger.Warn("no llm api keys, analysis uses the local heuristic only where allowed")
	}

	handler := httpserver.NewRouter(svc, uploadsSvc, httpserver.Options{
		CORSOrigins:  cfg.Server.CORSOrigins,
		RateCapacity: cfg.Server.RateLimit.Capacity,
		RateRefill:   cfg.Server.RateLimit.RefillRate,
		OperatorKeys: cfg.Server.OperatorKeys,
		Checkers:     checkers,
		Logger:       logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx2)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, reports.Repository, incidents.Repository, error) {
	if cfg.Database.Migrate {
		if err := migrations.Up(cfg.Database.Driver, cfg.MigrateURL()); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN(), mysqlp.Pool{})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		return db, mysqlp.NewReportRepository(db), mysqlp.NewIncidentRepository(db), nil
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		return db, postgres.NewReportRepository(db), postgres.NewIncidentRepository(db), nil
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
