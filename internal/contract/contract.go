// Package contract provides interfaces and shared utilities for the motionwin internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/motionwin/schema"
)

// Analyzer labels one window of records.
// Implementations build the context fields with schema.Window.Describe.
type Analyzer interface {
	Analyze(ctx context.Context, w schema.Window) (schema.Analysis, error)
}

// AnalyzerFunc adapts a plain function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, w schema.Window) (schema.Analysis, error)

// Analyze calls f(ctx, w).
func (f AnalyzerFunc) Analyze(ctx context.Context, w schema.Window) (schema.Analysis, error) {
	return f(ctx, w)
}

// TableLoader reads a tabular source into a relation, a schema and typed rows.
type TableLoader interface {
	Load(source string) (*schema.Table, error)
}

// StoreManager defines the interface for managing the analysis store.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetAnalysisStore() AnalysisStore
}

// AnalysisStore defines the interface for tracking runs and storing realized analyses.
type AnalysisStore interface {
	// BeginRun creates a new run for a collection and returns its unique ID
	BeginRun(collectionID, relation string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalRecords, totalAnalyses int) error

	// RecordAnalysis stores one realized analysis for the run
	RecordAnalysis(runID int64, analysis schema.Analysis) error

	// GetAllRuns returns every run in ID order
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllAnalyses returns every stored analysis ordered by run and window
	GetAllAnalyses() ([]schema.AnalysisRecord, error)

	// GetStatus returns status information about the store
	GetStatus() (schema.StoreStatus, error)

	// Clear deletes all runs and analyses
	Clear() error

	// Close closes the underlying connection
	Close() error
}
