package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/persist"
	"github.com/huangsam/motionwin/schema"
)

// storeBackendFromConfig reads and validates the store backend settings.
func storeBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if b := viper.GetString("store-backend"); b != "" {
		backend = schema.DatabaseBackend(b)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	backend, connStr, err := storeBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize the store with the loaded config
	if err := persist.InitStore(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize the store or create tables,
// allowing migrations to run on a fresh database.
func storeMigrateSetup() error {
	backend, connStr, err := storeBackendFromConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetStoreDBFilePath()
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeMigrateSetupWrapper wraps storeMigrateSetup to provide PreRunE for migrate command.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeMigrateSetup()
}

// requireStore returns the initialized store or an error naming how to enable one.
func requireStore() (contract.AnalysisStore, error) {
	store := activeStore()
	if store == nil {
		return nil, errors.New("analysis store is not initialized (set --store-backend)")
	}
	return store, nil
}

// storeCmd focused on analysis store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by the record commands. This avoids source
// validation and window config processing for simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored runs and analyses",
	Long: `Manage the analysis store that keeps every run and every labeled window.

When a backend is set, each ingest or analyze invocation records:
- Run metadata (collection, relation, timestamps, configuration, duration)
- Every realized analysis with its label, context and window bounds

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show store statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all stored data
  migrate - Run database schema migrations

Examples:
  # Check store status
  motionwin store status --store-backend sqlite

  # Export for analysis in pandas/DuckDB
  motionwin store export --store-backend sqlite --output-file labels`,
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored runs and analyses",
	Long: `Delete all stored runs and analyses.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  motionwin store export --output-file backup
  motionwin store clear`,
	PreRunE: storeSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := requireStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
		cmd.Println("Store cleared successfully.")
		return nil
	},
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about the analysis store.

Displays:
- Backend type and connection status
- Total number of runs and analyses stored
- Last and oldest run timestamps
- Total records seen across all runs
- Database table sizes

Examples:
  motionwin store status --store-backend sqlite`,
	PreRunE: storeSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := requireStore()
		if err != nil {
			return err
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get store status: %w", err)
		}
		persist.PrintStoreStatus(os.Stdout, status)
		return nil
	},
}

// storeExportCmd exports store data to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored runs and analyses to Parquet",
	Long: `Export all stored data to Parquet format for use with analytics tools.

Exports two datasets next to --output-file:
- <output-file>` + persist.RunsFileSuffix + ` - metadata about each run
- <output-file>` + persist.AnalysesFileSuffix + ` - every labeled window

Requires: --output-file parameter

Examples:
  motionwin store export --output-file labels
  duckdb -c "SELECT label, count(*) FROM read_parquet('labels.analyses.parquet') GROUP BY 1"`,
	PreRunE: storeSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := persist.ExportStore(os.Stdout, activeStore(), cfg.OutputFile); err != nil {
			return fmt.Errorf("failed to export store data: %w", err)
		}
		return nil
	},
}

// storeMigrateCmd runs database migrations for the analysis store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the analysis store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  motionwin store migrate --store-backend sqlite

  # Migrate to specific version
  motionwin store migrate --target-version 2

  # Rollback to initial state
  motionwin store migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := persist.MigrateStore(os.Stdout, cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}
