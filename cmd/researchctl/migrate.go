package main

import (
	"github.com/spf13/cobra"

	"research-review-api/config"
)

func init() {
	RootCmd.AddCommand(&MigrateCommand)
}

var MigrateCommand = cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := config.InitDB(cfg)
		if err != nil {
			return err
		}
		if err := config.AutoMigrate(db); err != nil {
			return err
		}
		logger.Info().Str("database", cfg.DB.Name).Msg("migration completed")
		return nil
	},
}
