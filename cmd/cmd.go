// Package cmd defines the command-line interface for motionwin.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(storeCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("relation", schema.DefaultRelation, "Relation name (defaults to the source's own name)")
	rootCmd.PersistentFlags().Int("window-size", schema.DefaultWindowSize, "Number of records per window")
	rootCmd.PersistentFlags().Int("window-overlap", schema.DefaultWindowOverlap, "Records between window triggers")
	rootCmd.PersistentFlags().String("bulk-mode", string(schema.LiteralBulk), "Bulk window placement: literal or sliding")
	rootCmd.PersistentFlags().String("coercion", string(schema.StrictCoercion), "Field coercion: strict or widen")
	rootCmd.PersistentFlags().String("context-columns", "", "Columns for analysis context (format: 'athlete:0,session:1,timestamp:3')")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers for bulk analysis")
	rootCmd.PersistentFlags().String("analyzer", string(schema.PeakAnalyzer), "Window analyzer: peak or none")
	rootCmd.PersistentFlags().String("peak-column", contract.DefaultPeakColumn, "Numeric attribute the peak analyzer watches")
	rootCmd.PersistentFlags().Float64("peak-threshold", contract.DefaultPeakThreshold, "Absolute value at which a window counts as a jump")
	rootCmd.PersistentFlags().String("analysis-timeout", contract.DefaultAnalysisTimeout.String(), "Upper bound on a single window analysis")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", "", "Analysis store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write prometheus metrics in text format to this file on exit")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of ingestCmd to Viper
	ingestCmd.Flags().Bool("follow", false, "Keep reading a CSV source as it grows")
	ingestCmd.Flags().String("export-schedule", "", "Cron spec for periodic ARFF snapshots to --output-file (e.g. '*/5 * * * *')")
	if err := viper.BindPFlags(ingestCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ingest flags", err)
	}

	// Bind all flags of showCmd to Viper
	showCmd.Flags().String("where", "", "Keep records matching attribute values (format: 'athlete=A1,session=S1')")
	if err := viper.BindPFlags(showCmd.Flags()); err != nil {
		contract.LogFatal("Error binding show flags", err)
	}

	// Bind all flags of exportCmd to Viper
	exportCmd.Flags().Bool("append", false, "Append to the destination instead of truncating it")
	if err := viper.BindPFlags(exportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding export flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
