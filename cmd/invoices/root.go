package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/grocery-invoices/pkg/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Parse Zepto and Blinkit grocery invoices and keep them in Postgres",
	Long: `invoices extracts line items from grocery delivery PDF invoices,
assigns each item a spending category and stores the result.

Commands that only read PDFs (parse, categorize) need no database.
Everything else reads its settings from the environment or a .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(
		parseCmd,
		categorizeCmd,
		syncCmd,
		serveCmd,
		exportCmd,
		statsCmd,
		recategorizeCmd,
		migrateCmd,
	)
}

// newLogger builds the process logger from configuration.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig reads configuration and the logger that goes with it.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg.Log, os.Stderr), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
