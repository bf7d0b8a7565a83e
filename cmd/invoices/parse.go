package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	importservice "github.com/FACorreiaa/grocery-invoices/internal/domain/import/service"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.pdf>...",
	Short: "Parse invoice PDFs and print the extracted invoices as JSON",
	Long: `Parse one or more invoice PDFs without touching the database.

With a single file the output is {"invoices": [...]}. With several files
the invoices of all files are concatenated into one result.

Examples:
  invoices parse zepto-nov.pdf
  invoices parse ~/Downloads/*.pdf > invoices.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := importservice.NewImportService(nil, logger)
		return runParse(cmd, svc, args)
	},
}

func runParse(cmd *cobra.Command, svc *importservice.ImportService, paths []string) error {
	merged := invoice.EmptyResult()
	var errs []error
	for _, path := range paths {
		parsed, err := svc.ParseFile(cmd.Context(), path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		merged.Invoices = append(merged.Invoices, parsed.Result.Invoices...)
	}

	if err := writeJSON(cmd.OutOrStdout(), merged); err != nil {
		return err
	}
	return errors.Join(errs...)
}
