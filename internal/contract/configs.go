package contract

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"

	"github.com/huangsam/motionwin/schema"
)

// Default values for configuration.
const (
	DefaultPrecision       = 2
	MaxPrecision           = 6
	DefaultPeakThreshold   = 2.5
	DefaultPeakColumn      = "accel"
	DefaultAnalysisTimeout = 30 * time.Second
	DefaultLogLevel        = "info"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ValidLogLevels lists the accepted --log-level values.
var ValidLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Config holds the runtime configuration for ingestion and analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Source   string // positional input file, if any
	Relation string

	WindowSize     int
	WindowOverlap  int
	BulkMode       schema.BulkMode
	Coercion       schema.CoercionMode
	ContextColumns schema.ContextColumns
	Workers        int

	Analyzer        schema.AnalyzerKind
	PeakColumn      string
	PeakThreshold   float64
	AnalysisTimeout time.Duration

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	UseColors  bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	LogLevel       string
	MetricsFile    string
	ExportSchedule string
	Follow         bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	SourceStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Relation        string  `mapstructure:"relation"`
	WindowSize      int     `mapstructure:"window-size"`
	WindowOverlap   int     `mapstructure:"window-overlap"`
	BulkMode        string  `mapstructure:"bulk-mode"`
	Coercion        string  `mapstructure:"coercion"`
	ContextColumns  string  `mapstructure:"context-columns"`
	Workers         int     `mapstructure:"workers"`
	Analyzer        string  `mapstructure:"analyzer"`
	PeakColumn      string  `mapstructure:"peak-column"`
	PeakThreshold   float64 `mapstructure:"peak-threshold"`
	AnalysisTimeout string  `mapstructure:"analysis-timeout"`
	Output          string  `mapstructure:"output"`
	OutputFile      string  `mapstructure:"output-file"`
	Precision       int     `mapstructure:"precision"`
	Color           string  `mapstructure:"color"`
	StoreBackend    string  `mapstructure:"store-backend"`
	StoreDBConnect  string  `mapstructure:"store-db-connect"`
	LogLevel        string  `mapstructure:"log-level"`
	MetricsFile     string  `mapstructure:"metrics-file"`

	// --- Fields from ingestCmd.Flags() ---
	ExportSchedule string `mapstructure:"export-schedule"`
	Follow         bool   `mapstructure:"follow"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processWindowConfig(cfg, input); err != nil {
		return err
	}
	if err := processAnalyzerConfig(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processFeedConfig(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		dsn, err := mysql.ParseDSN(connStr)
		if err != nil {
			return fmt.Errorf("invalid MySQL connection string: %w. Expected user:password@tcp(host:port)/dbname", err)
		}
		if dsn.DBName == "" {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		pgCfg, err := pgx.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("invalid PostgreSQL connection string: %w", err)
		}
		if pgCfg.Database == "" {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Source = strings.TrimSpace(input.SourceStr)
	cfg.OutputFile = input.OutputFile
	cfg.MetricsFile = input.MetricsFile
	cfg.Follow = input.Follow

	cfg.Relation = strings.TrimSpace(input.Relation)
	if cfg.Relation == "" {
		cfg.Relation = schema.DefaultRelation
	}
	if strings.ContainsAny(cfg.Relation, " \t\n,") {
		return fmt.Errorf("relation name %q must not contain whitespace or commas", cfg.Relation)
	}

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 3. Log Level Validation ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, ok := ValidLogLevels[cfg.LogLevel]; !ok {
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}

	return nil
}

// processWindowConfig handles window geometry, bulk mode, coercion and context columns.
func processWindowConfig(cfg *Config, input *ConfigRawInput) error {
	if input.WindowSize <= 0 {
		return fmt.Errorf("window-size must be greater than 0 (received %d)", input.WindowSize)
	}
	if input.WindowOverlap <= 0 {
		return fmt.Errorf("window-overlap must be greater than 0 (received %d)", input.WindowOverlap)
	}
	cfg.WindowSize = input.WindowSize
	cfg.WindowOverlap = input.WindowOverlap

	cfg.BulkMode = schema.BulkMode(strings.ToLower(input.BulkMode))
	if cfg.BulkMode == "" {
		cfg.BulkMode = schema.LiteralBulk
	}
	if _, ok := schema.ValidBulkModes[cfg.BulkMode]; !ok {
		return fmt.Errorf("invalid bulk mode '%s'. must be literal, sliding", input.BulkMode)
	}

	cfg.Coercion = schema.CoercionMode(strings.ToLower(input.Coercion))
	if cfg.Coercion == "" {
		cfg.Coercion = schema.StrictCoercion
	}
	if _, ok := schema.ValidCoercionModes[cfg.Coercion]; !ok {
		return fmt.Errorf("invalid coercion mode '%s'. must be strict, widen", input.Coercion)
	}

	cols, err := ParseContextColumns(input.ContextColumns)
	if err != nil {
		return fmt.Errorf("invalid --context-columns format: %w", err)
	}
	cfg.ContextColumns = cols
	return nil
}

// processAnalyzerConfig handles the analyzer choice and its parameters.
func processAnalyzerConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.Analyzer = schema.AnalyzerKind(strings.ToLower(input.Analyzer))
	if cfg.Analyzer == "" {
		cfg.Analyzer = schema.PeakAnalyzer
	}
	if _, ok := schema.ValidAnalyzerKinds[cfg.Analyzer]; !ok {
		return fmt.Errorf("invalid analyzer '%s'. must be peak, none", input.Analyzer)
	}

	cfg.PeakColumn = strings.TrimSpace(input.PeakColumn)
	if cfg.PeakColumn == "" {
		cfg.PeakColumn = DefaultPeakColumn
	}
	if input.PeakThreshold <= 0 {
		return fmt.Errorf("peak-threshold must be greater than 0 (received %g)", input.PeakThreshold)
	}
	cfg.PeakThreshold = input.PeakThreshold

	cfg.AnalysisTimeout = DefaultAnalysisTimeout
	if input.AnalysisTimeout != "" {
		d, err := time.ParseDuration(input.AnalysisTimeout)
		if err != nil {
			return fmt.Errorf("invalid analysis-timeout '%s': %w", input.AnalysisTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("analysis-timeout must be positive (received %s)", d)
		}
		cfg.AnalysisTimeout = d
	}
	return nil
}

// validateBackendConfigs validates the analysis store backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// processFeedConfig validates the scheduled export spec.
func processFeedConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.ExportSchedule = strings.TrimSpace(input.ExportSchedule)
	if cfg.ExportSchedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(cfg.ExportSchedule); err != nil {
		return fmt.Errorf("invalid export-schedule '%s': %w", cfg.ExportSchedule, err)
	}
	if cfg.OutputFile == "" {
		return fmt.Errorf("export-schedule requires --output-file")
	}
	return nil
}

// ParseContextColumns parses a string like "athlete:0,session:1,timestamp:3"
// into ContextColumns. Keys that are not given keep their defaults.
func ParseContextColumns(s string) (schema.ContextColumns, error) {
	cols := schema.DefaultContextColumns
	if strings.TrimSpace(s) == "" {
		return cols, nil
	}

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return cols, fmt.Errorf("invalid column format '%s', expected 'name:index'", part)
		}

		key := strings.ToLower(strings.TrimSpace(keyValue[0]))
		idx, err := strconv.Atoi(strings.TrimSpace(keyValue[1]))
		if err != nil {
			return cols, fmt.Errorf("invalid column index '%s' for %s: %w", keyValue[1], key, err)
		}
		if idx < 0 {
			return cols, fmt.Errorf("column index for %s must not be negative (received %d)", key, idx)
		}

		switch key {
		case "athlete":
			cols.Athlete = idx
		case "session":
			cols.Session = idx
		case "timestamp":
			cols.Timestamp = idx
		default:
			return cols, fmt.Errorf("invalid context column '%s', must be athlete, session, or timestamp", key)
		}
	}

	return cols, nil
}
