package analyzer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/logging"
	"github.com/huangsam/motionwin/schema"
)

// WithTimeout bounds every call to next by d.
// Timeouts are logged through the logger carried by ctx.
func WithTimeout(next contract.Analyzer, d time.Duration) contract.Analyzer {
	if next == nil || d <= 0 {
		return next
	}
	return contract.AnalyzerFunc(func(ctx context.Context, w schema.Window) (schema.Analysis, error) {
		tctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		a, err := next.Analyze(tctx, w)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			logging.FromContext(ctx).Warnw("analysis timed out", "timeout", d, "window_start", w.Start, "window_end", w.End)
		}
		return a, err
	})
}

// Recorder persists every successful analysis of next under the bound store run.
// Store failures are logged and do not fail the analysis.
type Recorder struct {
	next   contract.Analyzer
	store  contract.AnalysisStore
	runID  atomic.Int64
	logger *zap.SugaredLogger

	recorded atomic.Int64
	failed   atomic.Int64
}

var _ contract.Analyzer = &Recorder{}

// NewRecorder wraps next. A nil logger means no logging.
func NewRecorder(next contract.Analyzer, store contract.AnalysisStore, logger *zap.SugaredLogger) *Recorder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Recorder{next: next, store: store, logger: logger}
}

// Bind sets the run that later analyses are stored under.
func (r *Recorder) Bind(runID int64) { r.runID.Store(runID) }

// RunID returns the bound run.
func (r *Recorder) RunID() int64 { return r.runID.Load() }

// Analyze implements contract.Analyzer.
func (r *Recorder) Analyze(ctx context.Context, w schema.Window) (schema.Analysis, error) {
	a, err := r.next.Analyze(ctx, w)
	if err != nil {
		return a, err
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = time.Now()
	}
	runID := r.runID.Load()
	if err := r.store.RecordAnalysis(runID, a); err != nil {
		r.failed.Add(1)
		r.logger.Warnw("failed to record analysis", "run", runID, "window_start", a.WindowStart, "error", err)
		return a, nil
	}
	r.recorded.Add(1)
	return a, nil
}

// Recorded returns how many analyses reached the store.
func (r *Recorder) Recorded() int64 { return r.recorded.Load() }

// Failed returns how many analyses the store rejected.
func (r *Recorder) Failed() int64 { return r.failed.Load() }
