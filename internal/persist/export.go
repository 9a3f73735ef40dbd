package persist

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/parquet"
)

// Suffixes appended to the --output-file prefix by ExportStore.
const (
	RunsFileSuffix     = ".runs.parquet"
	AnalysesFileSuffix = ".analyses.parquet"
)

// ExportStore writes every run and analysis in store to two Parquet files
// named after outputFile.
func ExportStore(w io.Writer, store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total analyses: %d\n", status.TableSizes[AnalysesTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	analyses, err := store.GetAllAnalyses()
	if err != nil {
		return fmt.Errorf("failed to retrieve analyses: %w", err)
	}

	runsFile := outputFile + RunsFileSuffix
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	analysesFile := outputFile + AnalysesFileSuffix
	if err := parquet.WriteAnalysesParquet(parquet.ConvertAnalysisRecords(analyses), analysesFile); err != nil {
		return fmt.Errorf("failed to write analyses: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d analyses to: %s\n", len(analyses), analysesFile)

	return nil
}
