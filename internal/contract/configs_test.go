package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/motionwin/schema"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		WindowSize:    schema.DefaultWindowSize,
		WindowOverlap: schema.DefaultWindowOverlap,
		Workers:       4,
		Precision:     DefaultPrecision,
		Output:        "text",
		Color:         "yes",
		PeakThreshold: DefaultPeakThreshold,
		StoreBackend:  "none",
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, schema.DefaultRelation, cfg.Relation)
	assert.Equal(t, 50, cfg.WindowSize)
	assert.Equal(t, 25, cfg.WindowOverlap)
	assert.Equal(t, schema.LiteralBulk, cfg.BulkMode)
	assert.Equal(t, schema.StrictCoercion, cfg.Coercion)
	assert.Equal(t, schema.DefaultContextColumns, cfg.ContextColumns)
	assert.Equal(t, schema.PeakAnalyzer, cfg.Analyzer)
	assert.Equal(t, DefaultPeakColumn, cfg.PeakColumn)
	assert.Equal(t, DefaultAnalysisTimeout, cfg.AnalysisTimeout)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.NoneBackend, cfg.StoreBackend)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.True(t, cfg.UseColors)
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		check       func(*testing.T, *Config)
	}{
		{
			name:        "zero overlap",
			mutate:      func(in *ConfigRawInput) { in.WindowOverlap = 0 },
			expectError: true,
		},
		{
			name:        "negative size",
			mutate:      func(in *ConfigRawInput) { in.WindowSize = -5 },
			expectError: true,
		},
		{
			name:   "size below overlap is allowed",
			mutate: func(in *ConfigRawInput) { in.WindowSize, in.WindowOverlap = 5, 10 },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5, cfg.WindowSize)
				assert.Equal(t, 10, cfg.WindowOverlap)
			},
		},
		{
			name:   "sliding and widen",
			mutate: func(in *ConfigRawInput) { in.BulkMode, in.Coercion = "SLIDING", "widen" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.SlidingBulk, cfg.BulkMode)
				assert.Equal(t, schema.WidenCoercion, cfg.Coercion)
			},
		},
		{
			name:        "bad bulk mode",
			mutate:      func(in *ConfigRawInput) { in.BulkMode = "tumbling" },
			expectError: true,
		},
		{
			name:        "bad coercion",
			mutate:      func(in *ConfigRawInput) { in.Coercion = "loose" },
			expectError: true,
		},
		{
			name:        "bad output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "parquet without file",
			mutate:      func(in *ConfigRawInput) { in.Output = "parquet" },
			expectError: true,
		},
		{
			name:        "precision out of range",
			mutate:      func(in *ConfigRawInput) { in.Precision = 9 },
			expectError: true,
		},
		{
			name:        "zero workers",
			mutate:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: true,
		},
		{
			name:        "bad color",
			mutate:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: true,
		},
		{
			name:        "bad log level",
			mutate:      func(in *ConfigRawInput) { in.LogLevel = "trace" },
			expectError: true,
		},
		{
			name:        "relation with space",
			mutate:      func(in *ConfigRawInput) { in.Relation = "my run" },
			expectError: true,
		},
		{
			name:   "context columns override",
			mutate: func(in *ConfigRawInput) { in.ContextColumns = "timestamp:2" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.ContextColumns{Athlete: 0, Session: 1, Timestamp: 2}, cfg.ContextColumns)
			},
		},
		{
			name:        "bad context columns",
			mutate:      func(in *ConfigRawInput) { in.ContextColumns = "speed:2" },
			expectError: true,
		},
		{
			name:   "analysis timeout",
			mutate: func(in *ConfigRawInput) { in.AnalysisTimeout = "250ms" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 250*time.Millisecond, cfg.AnalysisTimeout)
			},
		},
		{
			name:        "bad analysis timeout",
			mutate:      func(in *ConfigRawInput) { in.AnalysisTimeout = "soon" },
			expectError: true,
		},
		{
			name:        "non-positive peak threshold",
			mutate:      func(in *ConfigRawInput) { in.PeakThreshold = 0 },
			expectError: true,
		},
		{
			name:        "bad analyzer",
			mutate:      func(in *ConfigRawInput) { in.Analyzer = "neural" },
			expectError: true,
		},
		{
			name:   "no analyzer",
			mutate: func(in *ConfigRawInput) { in.Analyzer = "none" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.NoAnalyzer, cfg.Analyzer)
			},
		},
		{
			name:        "bad backend",
			mutate:      func(in *ConfigRawInput) { in.StoreBackend = "oracle" },
			expectError: true,
		},
		{
			name: "export schedule",
			mutate: func(in *ConfigRawInput) {
				in.ExportSchedule = "*/5 * * * *"
				in.OutputFile = "out.arff"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "*/5 * * * *", cfg.ExportSchedule)
			},
		},
		{
			name:        "export schedule needs file",
			mutate:      func(in *ConfigRawInput) { in.ExportSchedule = "@every 1m" },
			expectError: true,
		},
		{
			name: "bad export schedule",
			mutate: func(in *ConfigRawInput) {
				in.ExportSchedule = "every tuesday"
				in.OutputFile = "out.arff"
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/motion", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql no db", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 user=u password=p dbname=motion", false},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseContextColumns(t *testing.T) {
	cols, err := ParseContextColumns("athlete:2, session:0 ,timestamp:5")
	require.NoError(t, err)
	assert.Equal(t, schema.ContextColumns{Athlete: 2, Session: 0, Timestamp: 5}, cols)

	_, err = ParseContextColumns("athlete")
	assert.Error(t, err)
	_, err = ParseContextColumns("athlete:x")
	assert.Error(t, err)
	_, err = ParseContextColumns("athlete:-1")
	assert.Error(t, err)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{WindowSize: 10, Relation: "a"}
	clone := cfg.Clone()
	clone.WindowSize = 20
	assert.Equal(t, 10, cfg.WindowSize)
	assert.Equal(t, "a", clone.Relation)
}
