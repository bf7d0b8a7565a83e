package main

import (
	"github.com/spf13/cobra"
)

var recategorizeCmd = &cobra.Command{
	Use:   "recategorize",
	Short: "Re-run the category rules over every stored item",
	Long: `Re-run the category rules over stored invoice items and rewrite the
invoices whose categories changed. Use after the rule table is updated.`,
	Args: cobra.NoArgs,
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

		result, err := deps.ImportService.Recategorize(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), result)
	},
}
