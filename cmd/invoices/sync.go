package main

import (
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [dir]",
	Short: "Import new or changed invoice PDFs from a directory",
	Long: `Walk a directory for *.pdf files and import every file whose content
has not been processed before. Files that fail are recorded and retried on
the next sync.

The directory defaults to INVOICE_IMPORT_DIR.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		dir := cfg.Import.Dir
		if len(args) == 1 {
			dir = args[0]
		}

		deps, err := InitDependencies(cfg, logger)
		if err != nil {
			return err
		}
		defer deps.Cleanup()

		stats, err := deps.ImportService.SyncDirectory(cmd.Context(), dir)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), stats)
	},
}
