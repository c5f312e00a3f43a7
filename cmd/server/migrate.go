package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kasirku/kasir/internal/config"
	"github.com/kasirku/kasir/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(database.Up), string(database.Down)},
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		setupLogger(cfg.LogLevel)

		dir := database.Up
		if len(args) == 1 {
			dir = database.Direction(args[0])
		}
		return database.Migrate(cfg.DatabaseURL, dir)
	},
}
