package core

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/huangsam/motionwin/core/window"
	"github.com/huangsam/motionwin/internal/metrics"
	"github.com/huangsam/motionwin/schema"
)

// AnalyzeWindow analyzes the records between start and end, resolved like a
// slice expression: negative indices count from the end and out-of-range
// values clamp. Pass window.ToEnd to run through the last record.
func (c *Collection) AnalyzeWindow(ctx context.Context, start, end int) (schema.Analysis, error) {
	if c.analyzer == nil {
		return schema.Analysis{}, schema.ErrNoAnalyzer
	}
	c.mu.RLock()
	span := window.Bounds(start, end, len(c.records))
	w := c.windowLocked(span)
	c.mu.RUnlock()

	if w.Len() == 0 {
		return schema.Analysis{}, fmt.Errorf("%w: [%d, %d) resolved to [%d, %d)", schema.ErrEmptyWindow, start, end, span.Start, span.End)
	}
	return c.analyze(ctx, w, metrics.PathWindow)
}

type bulkConfig struct {
	size    int
	overlap int
	mode    schema.BulkMode
}

// BulkOption configures AnalyzeAll.
type BulkOption func(*bulkConfig)

// WithBulkSize overrides the window size for one bulk pass.
func WithBulkSize(n int) BulkOption {
	return func(b *bulkConfig) { b.size = n }
}

// WithBulkOverlap overrides the overlap for one bulk pass.
func WithBulkOverlap(n int) BulkOption {
	return func(b *bulkConfig) { b.overlap = n }
}

// WithBulkMode selects how windows are placed.
func WithBulkMode(mode schema.BulkMode) BulkOption {
	return func(b *bulkConfig) { b.mode = mode }
}

// Pending is one bulk window whose analysis has not run yet.
type Pending struct {
	c    *Collection
	w    schema.Window
	mu   sync.Mutex
	done bool
	a    schema.Analysis
	err  error
}

// Window returns the snapshotted window.
func (p *Pending) Window() schema.Window { return p.w }

// Resolve runs the analysis once. Later calls return the first outcome,
// except when ctx was done: that failure is not kept and a later call retries.
func (p *Pending) Resolve(ctx context.Context) (schema.Analysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return p.a, p.err
	}
	a, err := p.c.analyze(ctx, p.w, metrics.PathBulk)
	if err != nil && ctx.Err() != nil {
		return a, err
	}
	p.a, p.err, p.done = a, err, true
	return a, err
}

// AnalyzeAll snapshots every bulk window of the current buffer and returns one
// Pending per window in order. Nothing is analyzed until a Pending is resolved.
func (c *Collection) AnalyzeAll(opts ...BulkOption) ([]*Pending, error) {
	cfg := bulkConfig{size: c.size, overlap: c.overlap, mode: schema.LiteralBulk}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := window.Validate(cfg.size, cfg.overlap); err != nil {
		return nil, err
	}
	if c.analyzer == nil {
		return nil, schema.ErrNoAnalyzer
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	spans, err := window.Plan(len(c.records), cfg.size, cfg.overlap, cfg.mode)
	if err != nil {
		return nil, err
	}
	pending := make([]*Pending, len(spans))
	for i, span := range spans {
		pending[i] = &Pending{c: c, w: c.windowLocked(span)}
	}
	c.logger.Debugw("bulk windows planned", "relation", c.name, "mode", cfg.mode,
		"size", cfg.size, "overlap", cfg.overlap, "windows", len(pending))
	return pending, nil
}

// ResolveAll resolves pending analyses with at most workers running at once and
// returns the results in the same order. The first error cancels the rest.
func ResolveAll(ctx context.Context, pending []*Pending, workers int) ([]schema.Analysis, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]schema.Analysis, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range pending {
		g.Go(func() error {
			a, err := p.Resolve(gctx)
			if err != nil {
				return err
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
