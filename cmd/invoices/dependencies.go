package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/categorization"
	importrepo "github.com/FACorreiaa/grocery-invoices/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/grocery-invoices/internal/domain/import/service"
	"github.com/FACorreiaa/grocery-invoices/pkg/config"
	"github.com/FACorreiaa/grocery-invoices/pkg/db"
	"github.com/FACorreiaa/grocery-invoices/pkg/metrics"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.ImportMetrics

	// Repositories
	ImportRepo importrepo.ImportRepository

	// Services
	Categorizer   *categorization.Engine
	ImportService *importservice.ImportService
}

// InitDependencies connects to the database, applies migrations and wires
// the import service
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := connectDatabase(d.Config, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func connectDatabase(cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	return db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        int32(max(cfg.Import.Workers*2, 4)),
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
		ConnectAttempts: uint(max(cfg.Database.ConnectAttempts, 1)),
		RetryDelay:      2 * time.Second,
	}, logger)
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.ImportRepo = importrepo.NewPostgresImportRepository(d.DB.Pool, d.Logger)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = metrics.NewImportMetrics(d.Registry)

	d.Categorizer = categorization.Default()

	d.ImportService = importservice.NewImportService(d.ImportRepo, d.Logger).
		WithCategorizer(d.Categorizer).
		WithRateLimit(d.Config.Import.FilesPerSecond).
		WithWorkers(d.Config.Import.Workers).
		WithImportedBy(d.Config.Import.Username).
		WithMetrics(d.Metrics)

	d.Logger.Info("services initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
