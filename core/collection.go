// Package core has the Collection: typed ingestion, window triggers and
// single-window and bulk analysis over an append-only record buffer.
package core

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huangsam/motionwin/core/window"
	"github.com/huangsam/motionwin/internal/arff"
	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/metrics"
	"github.com/huangsam/motionwin/schema"
)

// Collection is a named, schema-bound, append-only buffer of records.
// It is safe for concurrent use: appends are serialized and readers see
// consistent snapshots.
type Collection struct {
	mu      sync.RWMutex
	schema  schema.Schema
	records []schema.Record

	id       string
	name     string
	size     int
	overlap  int
	coercion schema.CoercionMode
	columns  schema.ContextColumns
	analyzer contract.Analyzer
	loader   contract.TableLoader
	logger   *zap.SugaredLogger
	metrics  *metrics.Collectors
	now      func() time.Time
	initial  []schema.Record

	triggers atomic.Int64
}

// Option configures a Collection.
type Option func(*Collection)

// WithWindow sets the window size and overlap.
func WithWindow(size, overlap int) Option {
	return func(c *Collection) {
		c.size = size
		c.overlap = overlap
	}
}

// WithAnalyzer sets the analyzer called on every trigger.
func WithAnalyzer(a contract.Analyzer) Option {
	return func(c *Collection) { c.analyzer = a }
}

// WithLoader replaces the table loader used by Import.
func WithLoader(l contract.TableLoader) Option {
	return func(c *Collection) { c.loader = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Collection) { c.logger = l }
}

// WithMetrics sets the prometheus collectors.
func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Collection) { c.metrics = m }
}

// WithCoercion sets how strictly raw fields must match their attribute type.
func WithCoercion(mode schema.CoercionMode) Option {
	return func(c *Collection) { c.coercion = mode }
}

// WithContextColumns sets the columns analyses take athlete, session and timestamps from.
func WithContextColumns(cols schema.ContextColumns) Option {
	return func(c *Collection) { c.columns = cols }
}

// WithRecords seeds the buffer. Every record must match the schema width.
func WithRecords(records ...schema.Record) Option {
	return func(c *Collection) { c.initial = append(c.initial, records...) }
}

// WithClock overrides the time source stamped on analyses.
func WithClock(now func() time.Time) Option {
	return func(c *Collection) { c.now = now }
}

// NewCollection returns a Collection that owns fresh containers.
func NewCollection(name string, s schema.Schema, opts ...Option) (*Collection, error) {
	c := &Collection{
		id:       uuid.NewString(),
		name:     name,
		schema:   s,
		size:     schema.DefaultWindowSize,
		overlap:  schema.DefaultWindowOverlap,
		coercion: schema.StrictCoercion,
		columns:  schema.DefaultContextColumns,
		loader:   arff.Loader{},
		logger:   zap.NewNop().Sugar(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := window.Validate(c.size, c.overlap); err != nil {
		return nil, err
	}
	if _, ok := schema.ValidCoercionModes[c.coercion]; !ok {
		return nil, fmt.Errorf("%w: unknown coercion mode %q", schema.ErrConfiguration, c.coercion)
	}
	if c.size < c.overlap {
		c.logger.Warnw("window size is smaller than overlap, some records will never be analyzed",
			"relation", name, "size", c.size, "overlap", c.overlap)
	}

	c.records = make([]schema.Record, 0, len(c.initial))
	for i, r := range c.initial {
		if len(r) != s.Len() {
			return nil, fmt.Errorf("%w: seed record %d has %d values for %d attributes", schema.ErrSchemaMismatch, i, len(r), s.Len())
		}
		c.records = append(c.records, append(schema.Record(nil), r...))
	}
	c.initial = nil
	return c, nil
}

// ID returns the instance identifier stamped on persisted runs.
func (c *Collection) ID() string { return c.id }

// Name returns the relation name.
func (c *Collection) Name() string { return c.name }

// WindowSize returns the number of records per window.
func (c *Collection) WindowSize() int { return c.size }

// WindowOverlap returns the trigger stride.
func (c *Collection) WindowOverlap() int { return c.overlap }

// Triggers returns how many times the ingest trigger has fired.
func (c *Collection) Triggers() int64 { return c.triggers.Load() }

// Schema returns the current schema.
func (c *Collection) Schema() schema.Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schema
}

// Len returns the number of buffered records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Record returns the record at index i. Negative indices count from the end.
func (c *Collection) Record(i int) (schema.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 {
		i += len(c.records)
	}
	if i < 0 || i >= len(c.records) {
		return nil, false
	}
	return c.records[i], true
}

// Records returns a snapshot of the buffer. The slice is clipped, so appending
// to it never touches the collection.
func (c *Collection) Records() []schema.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[:len(c.records):len(c.records)]
}

// Summary describes the collection for status output.
func (c *Collection) Summary() schema.CollectionSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return schema.CollectionSummary{
		ID:            c.id,
		Relation:      c.name,
		Attributes:    c.schema.Attributes(),
		Records:       len(c.records),
		WindowSize:    c.size,
		WindowOverlap: c.overlap,
		Triggers:      c.triggers.Load(),
	}
}

// String renders the name, the attributes and every record.
func (c *Collection) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var b strings.Builder
	fmt.Fprintf(&b, "__%s__\n", c.name)
	fmt.Fprintf(&b, "attributes: %s\n", c.schema)
	b.WriteString("data:\n[")
	for i, r := range c.records {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j, v := range r {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arff.FormatValue(v))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// windowLocked builds a window over span. The caller must hold c.mu.
func (c *Collection) windowLocked(span window.Span) schema.Window {
	return schema.Window{
		Relation: c.name,
		Start:    span.Start,
		End:      span.End,
		Records:  c.records[span.Start:span.End:span.End],
		Columns:  c.columns,
		Schema:   c.schema,
	}
}
