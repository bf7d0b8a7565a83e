package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/grocery-invoices/pkg/cron"
	"github.com/FACorreiaa/grocery-invoices/pkg/metrics"
	"github.com/FACorreiaa/grocery-invoices/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations, sync the import directory on a schedule and expose metrics",
	Long: `Run the long-lived importer.

On start the database is migrated and, when INVOICE_IMPORT_ENABLED is set,
the import directory is synced once (blocking when INVOICE_IMPORT_BLOCKING
is set, in the background otherwise). Afterwards the directory is synced on
INVOICE_IMPORT_SCHEDULE, and also whenever PDFs appear in it when
INVOICE_IMPORT_WATCH is set.

When METRICS_ENABLED is set, Prometheus metrics are served on
:METRICS_PORT/metrics. The process stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		deps, err := InitDependencies(cfg, logger)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		var metricsSrv *http.Server
		if cfg.Observability.MetricsEnabled {
			metricsSrv = startMetricsServer(deps, cfg.Observability.MetricsPort)
		}

		if cfg.Import.Enabled {
			scheduler := cron.NewScheduler(deps.ImportService, cfg.Import.Dir, cfg.Import.Schedule, cfg.Import.Timeout, logger)
			// Runs before deps.Cleanup so no sync outlives the pool.
			defer func() {
				<-scheduler.Stop().Done()
			}()

			if cfg.Import.Blocking {
				scheduler.Run(ctx)
			} else {
				scheduler.RunNow()
			}

			if err := scheduler.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			if cfg.Import.Watch {
				if err := watchImportDir(ctx, cfg.Import.Dir, cfg.Import.WatchDebounce, scheduler, logger); err != nil {
					return err
				}
			}
		} else {
			logger.Info("invoice import disabled, set INVOICE_IMPORT_ENABLED=true to sync")
		}

		<-ctx.Done()
		logger.Info("shutting down")

		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}
		return nil
	},
}

// watchImportDir triggers an out-of-schedule sync whenever PDFs change.
func watchImportDir(ctx context.Context, dir string, debounce time.Duration, scheduler *cron.Scheduler, logger *slog.Logger) error {
	src, err := storage.NewLocalSource(dir)
	if err != nil {
		return err
	}
	changes, err := src.Watch(ctx, debounce, logger)
	if err != nil {
		return err
	}

	go func() {
		for range changes {
			logger.Info("import directory changed, syncing", slog.String("dir", dir))
			scheduler.RunNow()
		}
	}()
	return nil
}

func startMetricsServer(deps *Dependencies, port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(deps.Registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		deps.Logger.Info("metrics server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	return srv
}
