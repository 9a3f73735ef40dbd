// Package parquet provides data structures and functions for exporting motionwin
// runs, analyses and buffered records to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/multierr"

	"github.com/huangsam/motionwin/schema"
)

// Run represents a single ingestion run with metadata.
// This struct maps to the motionwin_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// CollectionID is the instance ID of the collection that was fed
	CollectionID string `parquet:"collection_id,snappy"`

	// Relation is the collection's relation name
	Relation string `parquet:"relation,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalRecords  int32 `parquet:"total_records,snappy"`
	TotalAnalyses int32 `parquet:"total_analyses,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Analysis represents one realized window analysis.
// This struct maps to the motionwin_analyses database table.
type Analysis struct {
	RunID       int64     `parquet:"run_id,snappy"`
	Relation    string    `parquet:"relation,snappy"`
	Label       string    `parquet:"label,snappy"`
	Session     string    `parquet:"session,snappy"`
	Athlete     string    `parquet:"athlete,snappy"`
	StartStamp  string    `parquet:"start_stamp,snappy"`
	EndStamp    string    `parquet:"end_stamp,snappy"`
	WindowStart int32     `parquet:"window_start,snappy"`
	WindowEnd   int32     `parquet:"window_end,snappy"`
	Records     int32     `parquet:"records,snappy"`
	AnalyzedAt  time.Time `parquet:"analyzed_at,snappy"`
}

// Cell is one field of one buffered record in long format.
// Exactly one of Text, Real and Int is set unless the value is missing.
type Cell struct {
	Row       int64    `parquet:"row,snappy"`
	Column    int32    `parquet:"column,snappy"`
	Attribute string   `parquet:"attribute,snappy,dict"`
	Type      string   `parquet:"type,snappy,dict"`
	Text      *string  `parquet:"text,optional,snappy"`
	Real      *float64 `parquet:"real,optional,snappy"`
	Int       *int64   `parquet:"int,optional,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteAnalysesParquet writes a slice of Analysis structs to a Parquet file.
func WriteAnalysesParquet(data []Analysis, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCellsParquet writes a slice of Cell structs to a Parquet file.
func WriteCellsParquet(data []Cell, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet infers the schema from T's struct tags and writes every row.
func writeParquet[T any](data []T, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			CollectionID:  record.CollectionID,
			Relation:      record.Relation,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalRecords:  record.TotalRecords,
			TotalAnalyses: record.TotalAnalyses,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertAnalysisRecords converts schema.AnalysisRecord to Analysis for Parquet export.
func ConvertAnalysisRecords(records []schema.AnalysisRecord) []Analysis {
	result := make([]Analysis, len(records))
	for i, record := range records {
		result[i] = Analysis(record)
	}
	return result
}

// ConvertAnalyses converts in-memory analyses that were never stored. Their run ID is 0.
func ConvertAnalyses(analyses []schema.Analysis) []Analysis {
	result := make([]Analysis, len(analyses))
	for i, a := range analyses {
		result[i] = Analysis(schema.ToAnalysisRecord(0, a))
	}
	return result
}

// ConvertTable flattens a table into cells, one per field.
func ConvertTable(t schema.Table) []Cell {
	attrs := t.Schema.Attributes()
	result := make([]Cell, 0, len(t.Rows)*len(attrs))
	for row, record := range t.Rows {
		for col, v := range record {
			cell := Cell{Row: int64(row), Column: int32(col)}
			if col < len(attrs) {
				cell.Attribute = attrs[col].Name
				cell.Type = string(attrs[col].Type)
			}
			switch v.Kind() {
			case schema.TextKind:
				s, _ := v.Text()
				cell.Text = &s
			case schema.RealKind:
				f := v.Float()
				cell.Real = &f
			case schema.IntKind:
				n, _ := v.Int64()
				cell.Int = &n
			}
			result = append(result, cell)
		}
	}
	return result
}
