// Package analyzer has the built-in Analyzers and the decorators the feed pipeline wraps them in.
package analyzer

import (
	"context"
	"fmt"
	"math"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

// LabelFunc adapts a function that only picks a label into a full Analyzer.
// The context fields come from the window itself.
func LabelFunc(fn func(schema.Window) string) contract.Analyzer {
	return contract.AnalyzerFunc(func(ctx context.Context, w schema.Window) (schema.Analysis, error) {
		if err := ctx.Err(); err != nil {
			return schema.Analysis{}, err
		}
		return w.Describe(fn(w)), nil
	})
}

// Peak labels a window as a jump when the largest absolute value in one numeric
// column reaches a threshold. Missing cells are skipped.
type Peak struct {
	column    int
	name      string
	threshold float64
}

var _ contract.Analyzer = &Peak{}

// NewPeak resolves column against s. The column must be numeric.
func NewPeak(s schema.Schema, column string, threshold float64) (*Peak, error) {
	idx, ok := s.Index(column)
	if !ok {
		return nil, fmt.Errorf("peak column %q: %w", column, schema.ErrUnknownAttribute)
	}
	if !s.At(idx).Type.IsNumeric() {
		return nil, fmt.Errorf("peak column %q has type %s, want a numeric type", column, s.At(idx).Type)
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("peak threshold must be greater than 0 (received %g)", threshold)
	}
	return &Peak{column: idx, name: column, threshold: threshold}, nil
}

// Column returns the name of the inspected column.
func (p *Peak) Column() string { return p.name }

// Threshold returns the jump threshold.
func (p *Peak) Threshold() float64 { return p.threshold }

// Analyze implements contract.Analyzer.
func (p *Peak) Analyze(ctx context.Context, w schema.Window) (schema.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return schema.Analysis{}, err
	}
	if w.Len() == 0 {
		return schema.Analysis{}, schema.ErrEmptyWindow
	}
	i, err := p.columnIn(w)
	if err != nil {
		return schema.Analysis{}, err
	}
	if PeakOf(w, i) >= p.threshold {
		return w.Describe(contract.JumpLabel), nil
	}
	return w.Describe(contract.NoJumpLabel), nil
}

// columnIn finds the watched column by name in the window's schema, since an
// import may have reordered the attributes since NewPeak.
func (p *Peak) columnIn(w schema.Window) (int, error) {
	if w.Schema.Len() == 0 {
		return p.column, nil
	}
	i, ok := w.Schema.Index(p.name)
	if !ok {
		return 0, fmt.Errorf("peak column %q: %w", p.name, schema.ErrUnknownAttribute)
	}
	if t := w.Schema.At(i).Type; !t.IsNumeric() {
		return 0, fmt.Errorf("peak column %q has type %s, want a numeric type", p.name, t)
	}
	return i, nil
}

// PeakOf returns the largest absolute value in column i, or 0 when the column has no numbers.
func PeakOf(w schema.Window, i int) float64 {
	peak := 0.0
	for _, v := range w.Column(i) {
		f := v.Float()
		if math.IsNaN(f) {
			continue
		}
		peak = math.Max(peak, math.Abs(f))
	}
	return peak
}

// New builds the analyzer named by kind. NoAnalyzer yields a nil Analyzer.
func New(kind schema.AnalyzerKind, s schema.Schema, column string, threshold float64) (contract.Analyzer, error) {
	switch kind {
	case schema.PeakAnalyzer:
		return NewPeak(s, column, threshold)
	case schema.NoAnalyzer:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported analyzer: %s", kind)
	}
}
