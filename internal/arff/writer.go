package arff

import (
	"bufio"
	"fmt"
	"io"

	"github.com/huangsam/motionwin/schema"
)

// Writer writes tables in the export format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write emits the header, the instance comment block, one line per row and
// the trailing comment block, then flushes.
func (aw *Writer) Write(t *schema.Table) error {
	if err := aw.writeHeader(t); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if len(row) != t.Schema.Len() {
			return fmt.Errorf("%w: row %d has %d values for %d attributes", schema.ErrSchemaMismatch, i, len(row), t.Schema.Len())
		}
		if err := aw.writeRow(row); err != nil {
			return err
		}
	}
	if _, err := aw.w.WriteString("%\n%\n%\n"); err != nil {
		return err
	}
	return aw.w.Flush()
}

func (aw *Writer) writeHeader(t *schema.Table) error {
	if _, err := fmt.Fprintf(aw.w, "%s %s\n", relationKeyword, Quote(t.Relation)); err != nil {
		return err
	}
	for _, a := range t.Schema.Attributes() {
		if _, err := fmt.Fprintf(aw.w, "%s %s %s\n", attributeKeyword, Quote(a.Name), a.Type); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(aw.w, "%s\n%%\n%% %d instances\n%%\n", dataKeyword, len(t.Rows))
	return err
}

func (aw *Writer) writeRow(row schema.Record) error {
	for i, v := range row {
		if i > 0 {
			if err := aw.w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := aw.w.WriteString(FormatValue(v)); err != nil {
			return err
		}
	}
	return aw.w.WriteByte('\n')
}

// FormatValue renders one cell. Missing is the bare marker; text is quoted when needed.
func FormatValue(v schema.Value) string {
	if v.IsMissing() {
		return schema.MissingMarker
	}
	if s, ok := v.Text(); ok {
		return Quote(s)
	}
	return v.String()
}
