package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/punchdash/internal/config"
	"github.com/Veraticus/punchdash/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the local database schema to the latest version.

The database holds the connection settings, the last statistics received
from the backend and the history of submitted verdicts.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	dbPath := config.ExpandPath(viper.GetString(config.KeyDatabasePath))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if status {
		slog.Info("📊 Database migration status",
			"database", dbPath,
			"current", current,
			"latest", storage.ExpectedSchemaVersion)
		return nil
	}

	slog.Info("🗄️  Running database migrations...", "database", dbPath, "from", current)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("✅ Database migrations completed successfully!", "version", storage.ExpectedSchemaVersion)
	return nil
}
