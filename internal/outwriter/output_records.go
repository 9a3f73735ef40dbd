package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/parquet"
	"github.com/huangsam/motionwin/schema"
)

// WriteRecordResults outputs buffered records, dispatching based on the output format configured.
func WriteRecordResults(t schema.Table, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordJSON(w, t)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordCSV(w, t, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteCellsParquet(parquet.ConvertTable(t), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordTable(w, t, fmtFloat)
		}, "Wrote table")
	}
	return nil
}

// writeRecordTable writes the records as a table, one column per attribute.
func writeRecordTable(w io.Writer, t schema.Table, fmtFloat func(float64) string) error {
	names := t.Schema.Names()
	table := tablewriter.NewWriter(w)
	table.Header(names)

	maxWidth := getMaxCellWidth(getTerminalWidth(), 0, max(len(names), 1))

	data := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = contract.TruncateText(formatValue(v, fmtFloat), maxWidth)
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Relation %s holds %d records\n", t.Relation, len(t.Rows))
	return err
}

// writeRecordCSV writes the records in CSV format with an attribute-name header.
func writeRecordCSV(w io.Writer, t schema.Table, fmtFloat func(float64) string) error {
	return writeCSVWithHeader(w, t.Schema.Names(), func(cw *csv.Writer) error {
		for _, r := range t.Rows {
			rec := make([]string, len(r))
			for i, v := range r {
				rec[i] = formatValue(v, fmtFloat)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRecordJSON writes the records as objects keyed by attribute name.
// Missing values and NaN become null.
func writeRecordJSON(w io.Writer, t schema.Table) error {
	type jsonTable struct {
		Relation   string             `json:"relation"`
		Attributes []schema.Attribute `json:"attributes"`
		Records    []map[string]any   `json:"records"`
	}

	names := t.Schema.Names()
	out := jsonTable{
		Relation:   t.Relation,
		Attributes: t.Schema.Attributes(),
		Records:    make([]map[string]any, 0, len(t.Rows)),
	}
	for _, r := range t.Rows {
		obj := make(map[string]any, len(r))
		for i, v := range r {
			if i < len(names) {
				obj[names[i]] = v
			}
		}
		out.Records = append(out.Records, obj)
	}
	return writeJSON(w, out)
}
