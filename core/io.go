package core

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/huangsam/motionwin/internal/arff"
	"github.com/huangsam/motionwin/schema"
)

// Export writes the collection to destination, truncating it unless
// appendMode is set. The file is closed on every path and a close failure is
// reported alongside any write error.
func (c *Collection) Export(destination string, appendMode bool) (err error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(destination, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open export destination %q: %w", destination, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if err := c.ExportTo(f); err != nil {
		return fmt.Errorf("failed to export to %q: %w", destination, err)
	}
	return nil
}

// ExportTo writes the collection in the export format to w.
func (c *Collection) ExportTo(w io.Writer) error {
	table := c.Table()
	return arff.NewWriter(w).Write(&table)
}

// Table returns a snapshot of the collection as a table.
func (c *Collection) Table() schema.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return schema.Table{
		Relation: c.name,
		Schema:   c.schema,
		Rows:     c.records[:len(c.records):len(c.records)],
	}
}

// Import loads source with the table loader, replaces the schema and appends
// the rows. Nothing changes unless the whole source loads and validates. When
// records already exist the new schema must keep the same width.
func (c *Collection) Import(source string) error {
	table, err := c.loader.Load(source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", schema.ErrImport, source, err)
	}
	if table == nil {
		return fmt.Errorf("%w: %s: loader returned no table", schema.ErrImport, source)
	}
	width := table.Schema.Len()
	rows := make([]schema.Record, len(table.Rows))
	for i, r := range table.Rows {
		if len(r) != width {
			return fmt.Errorf("%w: %s: row %d: %w", schema.ErrImport, source, i, schema.ErrSchemaMismatch)
		}
		rows[i] = append(schema.Record(nil), r...)
	}

	c.mu.Lock()
	if len(c.records) > 0 && width != c.schema.Len() {
		current, count := c.schema.Len(), len(c.records)
		c.mu.Unlock()
		return fmt.Errorf("%w: imported schema has %d attributes but %d records already use %d",
			schema.ErrSchemaMismatch, width, count, current)
	}
	c.schema = table.Schema
	c.records = append(c.records, rows...)
	n := len(c.records)
	c.mu.Unlock()

	c.metrics.SetBuffered(c.name, n)
	c.logger.Infow("imported records", "relation", c.name, "source", source, "rows", len(rows), "records", n)
	return nil
}
