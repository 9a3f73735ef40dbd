package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

// WriteSummaryResults outputs a collection summary. Parquet is not offered for a single summary,
// so it falls back to JSON.
func WriteSummaryResults(s schema.CollectionSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut, schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, s)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, s)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryTable(w, s)
		}, "Wrote table")
	}
}

// summaryRows returns the summary as key/value pairs in display order.
func summaryRows(s schema.CollectionSummary) [][]string {
	rows := [][]string{
		{"id", s.ID},
		{"relation", s.Relation},
		{"records", strconv.Itoa(s.Records)},
		{"window_size", strconv.Itoa(s.WindowSize)},
		{"window_overlap", strconv.Itoa(s.WindowOverlap)},
		{"triggers", strconv.FormatInt(s.Triggers, 10)},
	}
	for i, a := range s.Attributes {
		rows = append(rows, []string{fmt.Sprintf("attribute_%d", i), fmt.Sprintf("%s (%s)", a.Name, a.Type)})
	}
	return rows
}

// writeSummaryTable writes the summary as a two-column table.
func writeSummaryTable(w io.Writer, s schema.CollectionSummary) error {
	if _, err := contract.HeaderColor.Fprintf(w, "Collection %s\n", s.Relation); err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	if err := table.Bulk(summaryRows(s)); err != nil {
		return err
	}
	return table.Render()
}

// writeSummaryCSV writes the summary as field,value rows.
func writeSummaryCSV(w io.Writer, s schema.CollectionSummary) error {
	return writeCSVWithHeader(w, []string{"field", "value"}, func(cw *csv.Writer) error {
		return cw.WriteAll(summaryRows(s))
	})
}
