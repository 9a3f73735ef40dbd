// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAnalyses prints realized analyses using the configured output format.
func (ow *OutWriter) WriteAnalyses(analyses []schema.Analysis, cfg *contract.Config, duration time.Duration) error {
	return WriteAnalysisResults(analyses, cfg, duration)
}

// WriteRecords prints buffered records using the configured output format.
func (ow *OutWriter) WriteRecords(table schema.Table, cfg *contract.Config) error {
	return WriteRecordResults(table, cfg)
}

// WriteSummary prints the state of a collection using the configured output format.
func (ow *OutWriter) WriteSummary(summary schema.CollectionSummary, cfg *contract.Config) error {
	return WriteSummaryResults(summary, cfg)
}
