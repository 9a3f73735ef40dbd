// Package feed drives records into a Collection from files, growing files and schedules.
package feed

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/motionwin/core"
	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

// EmitFunc receives one record as raw fields keyed by attribute name.
type EmitFunc func(fields map[string]any) error

// Source is a stream of records with a known schema.
type Source interface {
	Relation() string
	Schema() schema.Schema
	// Feed calls emit for every record until the source is exhausted, emit fails or ctx is done.
	Feed(ctx context.Context, emit EmitFunc) error
}

// Open picks a source by file extension. CSV files can be followed as they grow;
// anything else is read as an ARFF table through loader.
func Open(path string, follow bool, loader contract.TableLoader) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		if follow {
			return OpenTail(path)
		}
		return OpenCSV(path)
	}
	if follow {
		return nil, fmt.Errorf("--follow is only supported for CSV sources: %s", path)
	}
	return OpenTable(loader, path)
}

// TableSource replays a fully loaded table.
type TableSource struct {
	table *schema.Table
}

// OpenTable loads path through loader.
func OpenTable(loader contract.TableLoader, path string) (*TableSource, error) {
	t, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", schema.ErrImport, path, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s: loader returned no table", schema.ErrImport, path)
	}
	return &TableSource{table: t}, nil
}

// NewTableSource wraps an in-memory table.
func NewTableSource(t *schema.Table) *TableSource { return &TableSource{table: t} }

// Relation implements Source.
func (s *TableSource) Relation() string { return s.table.Relation }

// Schema implements Source.
func (s *TableSource) Schema() schema.Schema { return s.table.Schema }

// Feed implements Source.
func (s *TableSource) Feed(ctx context.Context, emit EmitFunc) error {
	names := s.table.Schema.Names()
	for _, row := range s.table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(RecordFields(names, row)); err != nil {
			return err
		}
	}
	return nil
}

// RecordFields keys a typed record by attribute name.
func RecordFields(names []string, r schema.Record) map[string]any {
	fields := make(map[string]any, len(r))
	for i, v := range r {
		if i < len(names) && !v.IsMissing() {
			fields[names[i]] = v
		}
	}
	return fields
}

// CSVSource reads a CSV file whose header declares the schema.
// Header cells are "name:type" (int, real or string); a bare name is a string.
type CSVSource struct {
	path     string
	relation string
	schema   schema.Schema
	header   []string
}

// OpenCSV reads the header of path. The relation is the file's base name.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrImport, err)
	}
	defer func() { _ = f.Close() }()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %w", schema.ErrImport, path, err)
	}
	header, s, err := ParseHeader(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", schema.ErrImport, path, err)
	}
	relation := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &CSVSource{path: path, relation: relation, schema: s, header: header}, nil
}

// Relation implements Source.
func (s *CSVSource) Relation() string { return s.relation }

// Schema implements Source.
func (s *CSVSource) Schema() schema.Schema { return s.schema }

// Feed implements Source.
func (s *CSVSource) Feed(ctx context.Context, emit EmitFunc) error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if _, err := r.Read(); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := emit(s.fields(row)); err != nil {
			return err
		}
	}
}

// fields maps one CSV row onto the header and parses each token by type.
// Extra cells are dropped and short rows leave the remaining attributes absent.
func (s *CSVSource) fields(row []string) map[string]any {
	raw := make(map[string]string, len(row))
	for i, tok := range row {
		if i >= len(s.header) {
			break
		}
		raw[s.header[i]] = strings.TrimSpace(tok)
	}
	return core.ParseFields(s.schema, raw)
}

// ParseHeader parses a "name:type,..." header line into names and a schema.
func ParseHeader(line string) ([]string, schema.Schema, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, schema.Schema{}, errors.New("missing CSV header")
	}
	cells, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, schema.Schema{}, fmt.Errorf("parse CSV header: %w", err)
	}

	names := make([]string, len(cells))
	types := make([]schema.AttributeType, len(cells))
	for i, cell := range cells {
		name, typ, found := strings.Cut(strings.TrimSpace(cell), ":")
		names[i] = strings.TrimSpace(name)
		types[i] = schema.StringType
		if found {
			t, err := schema.ParseAttributeType(typ)
			if err != nil {
				return nil, schema.Schema{}, fmt.Errorf("column %q: %w", names[i], err)
			}
			types[i] = t
		}
	}
	s, err := schema.FromPairs(names, types)
	if err != nil {
		return nil, schema.Schema{}, err
	}
	return names, s, nil
}
