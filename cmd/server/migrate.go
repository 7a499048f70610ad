package main

import (
	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/competency-assessment/pkg"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, closer, err := bootstrap()
		if err != nil {
			return err
		}
		defer closer.Close()

		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return err
		}
		if err := pkg.Migrate(db); err != nil {
			return err
		}
		logger.Info("Schema migrated")
		return nil
	},
}
