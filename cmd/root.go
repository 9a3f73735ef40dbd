package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/logging"
	"github.com/huangsam/motionwin/internal/metrics"
	"github.com/huangsam/motionwin/internal/persist"
	"github.com/huangsam/motionwin/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// storeManager is the global persistence manager instance.
var storeManager contract.StoreManager = persist.Manager

// logger is replaced with a leveled logger once the config is validated.
var logger = logging.NewNop()

// collectors hold the prometheus metrics of one invocation.
var collectors *metrics.Collectors

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "motionwin",
	Short:              "Window sensor record streams and label motion events.",
	Long:               `Motionwin buffers typed sensor records, cuts them into overlapping windows and labels each window with an analyzer.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(".motionwin") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("MOTIONWIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("relation", schema.DefaultRelation)
	viper.SetDefault("window-size", schema.DefaultWindowSize)
	viper.SetDefault("window-overlap", schema.DefaultWindowOverlap)
	viper.SetDefault("bulk-mode", schema.LiteralBulk)
	viper.SetDefault("coercion", schema.StrictCoercion)
	viper.SetDefault("context-columns", "")
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("analyzer", schema.PeakAnalyzer)
	viper.SetDefault("peak-column", contract.DefaultPeakColumn)
	viper.SetDefault("peak-threshold", contract.DefaultPeakThreshold)
	viper.SetDefault("analysis-timeout", contract.DefaultAnalysisTimeout.String())
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("store-backend", "")
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config, runs validation and initializes logging, metrics and the store.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.SourceStr = ""
	if len(args) > 0 {
		input.SourceStr = args[0]
	}

	// 4. Run all validation and complex parsing.
	// This function now populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	logger = logging.NewLogger(cfg.LogLevel)
	collectors = metrics.New()

	// 5. Initialize persistence layer with validated config
	if err := persist.InitStore(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	// Handle config file
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".motionwin")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// activeStore returns the initialized analysis store, or nil when there is none.
func activeStore() contract.AnalysisStore {
	if storeManager == nil {
		return nil
	}
	return storeManager.GetAnalysisStore()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetStoreManager sets the global store manager.
func SetStoreManager(mgr contract.StoreManager) {
	storeManager = mgr
}

// Finish writes the metrics file if one was requested and flushes the logger.
func Finish() error {
	_ = logger.Sync()
	if err := collectors.WriteFile(cfg.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

