package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	importrepo "github.com/FACorreiaa/grocery-invoices/internal/domain/import/repository"
	"github.com/FACorreiaa/grocery-invoices/pkg/money"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print invoice totals per category, month and vendor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		deps, err := InitDependencies(cfg, logger)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		stats, err := deps.ImportService.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), stats)
		}
		return printStats(cmd.OutOrStdout(), stats)
	},
}

// printStats renders stats as aligned tables with INR amounts.
func printStats(out io.Writer, stats *importrepo.Stats) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Invoices\t%d\t\n", stats.Invoices)
	fmt.Fprintf(w, "Items\t%d\t\n", stats.Items)
	total := money.NewINR(stats.Total)
	fmt.Fprintf(w, "Total\t%s\t\n", total.Display())

	sections := []struct {
		title   string
		buckets []importrepo.Bucket
	}{
		{"Category", stats.ByCategory},
		{"Month", stats.ByMonth},
		{"Vendor", stats.ByVendor},
	}
	for _, s := range sections {
		if len(s.buckets) == 0 {
			continue
		}
		fmt.Fprintf(w, "\t\t\t\t\n%s\tCount\tTotal\tShare\t\n", s.title)
		for _, b := range s.buckets {
			amount := money.NewINR(b.Total)
			fmt.Fprintf(w, "%s\t%d\t%s\t%s%%\t\n", b.Key, b.Count, amount.Display(), amount.PercentageOf(total).StringFixed(1))
		}
	}
	return w.Flush()
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print raw JSON instead of tables")
}
