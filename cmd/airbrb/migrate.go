package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"airbrb/internal/infra/config"
	"airbrb/internal/infra/db/sqlstore"
)

func migrateCmd(envFiles *[]string) *cobra.Command {
	var driver, dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the relational schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if driver == "" || dsn == "" {
				cfg, err := config.Load(*envFiles...)
				if err != nil {
					return err
				}
				if driver == "" {
					driver = cfg.StorageDriver
				}
				if dsn == "" {
					dsn = cfg.DatabaseDSN
				}
			}
			if driver != config.DriverPostgres && driver != config.DriverSQLite {
				return fmt.Errorf("migrate needs a postgres or sqlite driver, got %q", driver)
			}
			db, err := sqlstore.Open(driver, dsn)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := sqlstore.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s, %d tables)\n", driver, len(sqlstore.Models()))
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "postgres or sqlite (defaults to STORAGE_DRIVER)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "connection string (defaults to DATABASE_DSN)")
	return cmd
}
