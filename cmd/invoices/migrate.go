package main

import (
	"github.com/spf13/cobra"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := connectDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer database.Close()

		if migrateStatus {
			return database.MigrationStatus()
		}
		return database.RunMigrations()
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print migration status instead of migrating")
}
