package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/parquet"
	"github.com/huangsam/motionwin/schema"
)

// WriteAnalysisResults outputs realized analyses, dispatching based on the output format configured.
func WriteAnalysisResults(analyses []schema.Analysis, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisJSON(w, analyses)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisCSV(w, analyses)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteAnalysesParquet(parquet.ConvertAnalyses(analyses), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisTable(w, analyses, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeAnalysisTable generates and writes the human-readable table.
func writeAnalysisTable(w io.Writer, analyses []schema.Analysis, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Window", "Athlete", "Session", "Start", "End", "Records", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// #, Window, Records and Label are fixed; the rest share what is left
	maxWidth := getMaxCellWidth(getTerminalWidth(), 50, 4)

	label := func(s string) string { return s }
	if cfg.UseColors {
		label = contract.GetColorLabel
	}

	jumps := 0
	var data [][]string
	for i, a := range analyses {
		if a.Value == contract.JumpLabel {
			jumps++
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("[%d, %d)", a.WindowStart, a.WindowEnd),
			contract.TruncateText(a.Athlete, maxWidth),
			contract.TruncateText(a.Session, maxWidth),
			contract.TruncateText(a.Start, maxWidth),
			contract.TruncateText(a.End, maxWidth),
			strconv.Itoa(a.Records),
			label(a.Value),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d analyses (%s: %d)\n", len(analyses), contract.JumpLabel, jumps); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeAnalysisCSV writes the analyses in CSV format.
func writeAnalysisCSV(w io.Writer, analyses []schema.Analysis) error {
	header := []string{
		"relation",
		"label",
		"athlete",
		"session",
		"start",
		"end",
		"window_start",
		"window_end",
		"records",
		"analyzed_at",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, a := range analyses {
			rec := []string{
				a.Name,
				a.Value,
				a.Athlete,
				a.Session,
				a.Start,
				a.End,
				strconv.Itoa(a.WindowStart),
				strconv.Itoa(a.WindowEnd),
				strconv.Itoa(a.Records),
				a.AnalyzedAt.Format(contract.DateTimeFormat),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeAnalysisJSON writes the analyses in JSON format.
func writeAnalysisJSON(w io.Writer, analyses []schema.Analysis) error {
	if analyses == nil {
		analyses = []schema.Analysis{}
	}
	return writeJSON(w, analyses)
}
