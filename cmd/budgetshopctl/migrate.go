package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetshop/internal/backend"
	"budgetshop/internal/store/postgres"
	"budgetshop/internal/store/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch backend.Kind(cfg.DBBackend) {
		case backend.SQLite:
			if err := sqlite.RunMigrations(cfg.SQLiteDBPath); err != nil {
				return err
			}
		case backend.Postgres:
			if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
		default:
			return fmt.Errorf("backend %q has no migrations", cfg.DBBackend)
		}
		cmd.Println("Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch backend.Kind(cfg.DBBackend) {
		case backend.SQLite:
			if err := sqlite.MigrateDown(cfg.SQLiteDBPath); err != nil {
				return err
			}
		case backend.Postgres:
			if err := postgres.MigrateDown(cfg.DatabaseURL); err != nil {
				return err
			}
		default:
			return fmt.Errorf("backend %q has no migrations", cfg.DBBackend)
		}
		cmd.Println("Rolled back one migration")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			version uint
			dirty   bool
			err     error
		)
		switch backend.Kind(cfg.DBBackend) {
		case backend.SQLite:
			version, dirty, err = sqlite.MigrationVersion(cfg.SQLiteDBPath)
		case backend.Postgres:
			version, dirty, err = postgres.MigrationVersion(cfg.DatabaseURL)
		default:
			return fmt.Errorf("backend %q has no migrations", cfg.DBBackend)
		}
		if err != nil {
			return err
		}
		if version == 0 {
			cmd.Println("No migrations applied yet")
			return nil
		}
		cmd.Printf("Schema version %d (dirty: %v)\n", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
