package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/motionwin/core/window"
	"github.com/huangsam/motionwin/internal/metrics"
	"github.com/huangsam/motionwin/schema"
)

// AddRecord coerces fields against the schema and appends the record. When the
// new length satisfies the trigger it analyzes the latest window and returns
// the result; otherwise it returns nil, nil.
//
// The window is snapshotted under the lock, and the analyzer runs after the
// lock is released with ctx, so other feeders are not blocked by it.
func (c *Collection) AddRecord(ctx context.Context, fields map[string]any) (*schema.Analysis, error) {
	c.mu.RLock()
	s := c.schema
	c.mu.RUnlock()

	record, warned := coerceRecord(s, fields, c.coercion)
	return c.commit(ctx, s, record, warned, fields)
}

// commit appends a record coerced against s. If an import replaced the schema
// in the meantime the fields are coerced again under the write lock.
func (c *Collection) commit(ctx context.Context, s schema.Schema, record schema.Record, warned []string, fields map[string]any) (*schema.Analysis, error) {
	c.mu.Lock()
	if !c.schema.Equal(s) {
		s = c.schema
		record, warned = coerceRecord(s, fields, c.coercion)
	}
	if len(record) != s.Len() {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: record has %d values for %d attributes", schema.ErrSchemaMismatch, len(record), s.Len())
	}
	c.records = append(c.records, record)
	n := len(c.records)
	fire := window.Trigger(n, c.size, c.overlap)
	var w schema.Window
	if fire {
		w = c.windowLocked(window.Latest(n, c.size))
	}
	c.mu.Unlock()

	for _, name := range warned {
		i, _ := s.Index(name)
		c.logger.Warnw("unable to coerce field", "relation", c.name, "attribute", name,
			"type", s.At(i).Type, "value", fields[name])
		c.metrics.CoercionWarning(c.name, name)
	}
	c.metrics.RecordIngested(c.name, n)
	if !fire {
		return nil, nil
	}

	c.triggers.Add(1)
	c.metrics.WindowTriggered(c.name)
	if c.analyzer == nil {
		c.logger.Debugw("window ready but no analyzer configured", "relation", c.name, "start", w.Start, "end", w.End)
		return nil, nil
	}

	a, err := c.analyze(ctx, w, metrics.PathIngest)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// analyze runs the analyzer on w and stamps the result.
func (c *Collection) analyze(ctx context.Context, w schema.Window, path string) (schema.Analysis, error) {
	if c.analyzer == nil {
		return schema.Analysis{}, schema.ErrNoAnalyzer
	}
	if err := ctx.Err(); err != nil {
		return schema.Analysis{}, err
	}
	start := time.Now()
	a, err := c.analyzer.Analyze(ctx, w)
	c.metrics.ObserveAnalysis(c.name, path, time.Since(start), err)
	if err != nil {
		return schema.Analysis{}, fmt.Errorf("analyze window [%d, %d): %w", w.Start, w.End, err)
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = c.now()
	}
	c.logger.Debugw("window analyzed", "relation", c.name, "path", path,
		"start", w.Start, "end", w.End, "label", a.Value)
	return a, nil
}
