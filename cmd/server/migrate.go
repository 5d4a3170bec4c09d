package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sujalbistaa/v4ult/internal/config"
	"github.com/sujalbistaa/v4ult/internal/db"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))

			database, err := db.Open(cfg.DatabaseURL, cfg.LogLevel == "debug")
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			slog.Info("migrations complete")
			return nil
		},
	}
}
