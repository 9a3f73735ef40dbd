package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huangsam/motionwin/core"
	"github.com/huangsam/motionwin/internal/analyzer"
	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/logging"
	"github.com/huangsam/motionwin/internal/metrics"
	"github.com/huangsam/motionwin/schema"
)

// Result is the outcome of one pipeline run.
type Result struct {
	Collection *core.Collection
	RunID      int64
	Analyses   []schema.Analysis
	Failures   int // analyzer calls that failed and were skipped
	Duration   time.Duration

	started time.Time
}

// Pipeline builds collections from a validated config and drives sources into them.
// Every realized analysis is stored under one run when a store is set.
type Pipeline struct {
	cfg     *contract.Config
	store   contract.AnalysisStore
	logger  *zap.SugaredLogger
	metrics *metrics.Collectors
	base    contract.Analyzer
	now     func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithStore records runs and analyses in store.
func WithStore(store contract.AnalysisStore) PipelineOption {
	return func(p *Pipeline) { p.store = store }
}

// WithLogger sets the logger handed to collections and decorators.
func WithLogger(l *zap.SugaredLogger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the collectors handed to collections.
func WithMetrics(m *metrics.Collectors) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithAnalyzer replaces the analyzer the config names.
func WithAnalyzer(a contract.Analyzer) PipelineOption {
	return func(p *Pipeline) { p.base = a }
}

// NewPipeline returns a pipeline for cfg.
func NewPipeline(cfg *contract.Config, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{cfg: cfg, logger: zap.NewNop().Sugar(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// analyzerFor builds the analyzer chain for s: base, then timeout, then recorder.
// It returns a nil Analyzer when the config disables analysis.
func (p *Pipeline) analyzerFor(s schema.Schema) (contract.Analyzer, *analyzer.Recorder, error) {
	base := p.base
	if base == nil {
		var err error
		base, err = analyzer.New(p.cfg.Analyzer, s, p.cfg.PeakColumn, p.cfg.PeakThreshold)
		if err != nil {
			return nil, nil, err
		}
		if base == nil {
			return nil, nil, nil
		}
	}
	a := analyzer.WithTimeout(base, p.cfg.AnalysisTimeout)
	if p.store == nil {
		return a, nil, nil
	}
	rec := analyzer.NewRecorder(a, p.store, p.logger)
	return rec, rec, nil
}

// relationFor prefers an explicit --relation over the source's own name.
func (p *Pipeline) relationFor(src Source) string {
	if p.cfg.Relation != "" && p.cfg.Relation != schema.DefaultRelation {
		return p.cfg.Relation
	}
	if src.Relation() != "" {
		return src.Relation()
	}
	return schema.DefaultRelation
}

// newCollection builds a collection with the configured window and coercion.
func (p *Pipeline) newCollection(relation string, s schema.Schema, a contract.Analyzer, records ...schema.Record) (*core.Collection, error) {
	return core.NewCollection(relation, s,
		core.WithWindow(p.cfg.WindowSize, p.cfg.WindowOverlap),
		core.WithAnalyzer(a),
		core.WithCoercion(p.cfg.Coercion),
		core.WithContextColumns(p.cfg.ContextColumns),
		core.WithLogger(p.logger),
		core.WithMetrics(p.metrics),
		core.WithRecords(records...),
	)
}

// runParams is the config snapshot stored with a run.
func (p *Pipeline) runParams(mode string) map[string]any {
	return map[string]any{
		"mode":           mode,
		"source":         p.cfg.Source,
		"window-size":    p.cfg.WindowSize,
		"window-overlap": p.cfg.WindowOverlap,
		"bulk-mode":      p.cfg.BulkMode,
		"coercion":       p.cfg.Coercion,
		"analyzer":       p.cfg.Analyzer,
		"peak-column":    p.cfg.PeakColumn,
		"peak-threshold": p.cfg.PeakThreshold,
	}
}

// Begin builds a collection wired to the configured analyzer chain and opens a
// store run for it. The caller appends realized analyses to the result and
// passes it to End.
func (p *Pipeline) Begin(relation string, s schema.Schema, mode string, records ...schema.Record) (*Result, error) {
	start := p.now()
	a, rec, err := p.analyzerFor(s)
	if err != nil {
		return nil, err
	}
	c, err := p.newCollection(relation, s, a, records...)
	if err != nil {
		return nil, err
	}
	res := &Result{Collection: c, started: start}
	if p.store == nil {
		return res, nil
	}
	if res.RunID, err = p.store.BeginRun(c.ID(), c.Name(), start, p.runParams(mode)); err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	if rec != nil {
		rec.Bind(res.RunID)
	}
	return res, nil
}

// End stamps the duration and closes the store run. A store failure is logged, not returned.
func (p *Pipeline) End(res *Result) {
	res.Duration = p.now().Sub(res.started)
	if p.store == nil {
		return
	}
	if err := p.store.EndRun(res.RunID, p.now(), res.Collection.Len(), len(res.Analyses)); err != nil {
		p.logger.Warnw("failed to end run", "run", res.RunID, "error", err)
	}
}

// Ingest feeds src record by record, collecting every triggered analysis.
// With an export schedule the buffer is also exported periodically and once at the end.
// Cancelling ctx stops the feed and still closes the run.
func (p *Pipeline) Ingest(ctx context.Context, src Source) (*Result, error) {
	ctx = logging.WithLogger(ctx, p.logger)
	res, err := p.Begin(p.relationFor(src), src.Schema(), "ingest")
	if err != nil {
		return nil, err
	}
	c := res.Collection

	var sched *Scheduler
	if p.cfg.ExportSchedule != "" {
		if sched, err = NewScheduler(p.cfg.ExportSchedule, c, p.cfg.OutputFile, p.logger); err != nil {
			p.End(res)
			return nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	feedCtx, stop := context.WithCancel(gctx)
	defer stop()

	if sched != nil {
		g.Go(func() error { return sched.Run(feedCtx) })
	}
	g.Go(func() error {
		defer stop()
		return src.Feed(feedCtx, func(fields map[string]any) error {
			got, err := c.AddRecord(feedCtx, fields)
			switch {
			case err == nil:
				if got != nil {
					res.Analyses = append(res.Analyses, *got)
				}
				return nil
			case errors.Is(err, schema.ErrSchemaMismatch), feedCtx.Err() != nil:
				return err
			default:
				res.Failures++
				p.logger.Warnw("analysis failed", "relation", c.Name(), "records", c.Len(), "error", err)
				return nil
			}
		})
	})

	err = g.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		p.logger.Infow("ingest interrupted", "relation", c.Name(), "records", c.Len())
		err = nil
	}
	if sched != nil {
		sched.ExportNow()
	}
	p.End(res)
	return res, err
}

// Analyze loads all of src without triggering, then analyzes the buffer in bulk
// with the configured mode and worker count.
func (p *Pipeline) Analyze(ctx context.Context, src Source) (*Result, error) {
	if p.cfg.Analyzer == schema.NoAnalyzer && p.base == nil {
		return nil, schema.ErrNoAnalyzer
	}
	ctx = logging.WithLogger(ctx, p.logger)
	relation := p.relationFor(src)
	staging, err := core.NewCollection(relation, src.Schema(),
		core.WithWindow(p.cfg.WindowSize, p.cfg.WindowOverlap),
		core.WithCoercion(p.cfg.Coercion),
		core.WithLogger(p.logger),
	)
	if err != nil {
		return nil, err
	}
	if err := src.Feed(ctx, func(fields map[string]any) error {
		_, err := staging.AddRecord(ctx, fields)
		return err
	}); err != nil {
		return nil, err
	}

	res, err := p.Begin(relation, src.Schema(), "analyze", staging.Records()...)
	if err != nil {
		return nil, err
	}
	pending, err := res.Collection.AnalyzeAll(core.WithBulkMode(p.cfg.BulkMode))
	if err == nil {
		res.Analyses, err = core.ResolveAll(ctx, pending, p.cfg.Workers)
	}
	p.End(res)
	return res, err
}
