package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/categorization"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/export"
	importrepo "github.com/FACorreiaa/grocery-invoices/internal/domain/import/repository"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

var (
	exportFormat   string
	exportCategory string
	exportOut      string
	exportVendor   string
	exportFrom     string
	exportTo       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored invoice items as CSV or XLSX",
	Long: `Export stored invoice items, one row per item.

The category may be typed loosely ("dairy", "snaks") and is resolved to
the closest known category. Dates use DD-MM-YYYY.

Examples:
  invoices export --format csv > items.csv
  invoices export --format xlsx --out november.xlsx --from 01-11-2025 --to 30-11-2025
  invoices export --category dairy`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, opts, err := exportFilter()
		if err != nil {
			return err
		}
		if exportFormat != "csv" && exportFormat != "xlsx" {
			return fmt.Errorf("unknown format %q: use csv or xlsx", exportFormat)
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		deps, err := InitDependencies(cfg, logger)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		records, err := deps.ImportService.Invoices(cmd.Context(), filter)
		if err != nil {
			return err
		}
		invoices := make([]invoice.Invoice, len(records))
		for i, rec := range records {
			invoices[i] = rec.Invoice
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOut, err)
			}
			defer f.Close()
			w = f
		}

		if exportFormat == "xlsx" {
			return export.WriteXLSX(w, invoices, opts)
		}
		return export.WriteCSV(w, invoices, opts)
	},
}

// exportFilter turns the flags into a repository filter and export options.
func exportFilter() (importrepo.ListFilter, export.Options, error) {
	var filter importrepo.ListFilter
	var opts export.Options

	filter.Vendor = exportVendor
	if exportCategory != "" {
		category, ok := categorization.Canonicalize(exportCategory)
		if !ok {
			return filter, opts, fmt.Errorf("unknown category %q", exportCategory)
		}
		filter.Category = category
		opts.Category = category
	}

	for _, f := range []struct {
		raw string
		dst **time.Time
	}{{exportFrom, &filter.From}, {exportTo, &filter.To}} {
		if f.raw == "" {
			continue
		}
		t, err := time.Parse(invoice.DateLayout, f.raw)
		if err != nil {
			return filter, opts, fmt.Errorf("invalid date %q: use DD-MM-YYYY", f.raw)
		}
		*f.dst = &t
	}
	return filter, opts, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "only export items of this category")
	exportCmd.Flags().StringVar(&exportVendor, "vendor", "", "only export invoices of this vendor (zepto, blinkit)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first invoice date, DD-MM-YYYY")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last invoice date, DD-MM-YYYY")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}
