package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eddwmvv/projetovereler-sub001/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
