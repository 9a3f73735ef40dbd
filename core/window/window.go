// Package window has the pure arithmetic behind window triggers and bulk plans.
package window

import (
	"fmt"
	"math"

	"github.com/huangsam/motionwin/schema"
)

// ToEnd is the end sentinel meaning "through the last record".
const ToEnd = math.MaxInt

// Span is a half-open range [Start, End) of buffer indices.
type Span struct {
	Start int
	End   int
}

// Len returns the number of indices covered.
func (s Span) Len() int {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Validate rejects a non-positive size or overlap.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: window size must be greater than 0 (received %d)", schema.ErrConfiguration, size)
	}
	if overlap <= 0 {
		return fmt.Errorf("%w: window overlap must be greater than 0 (received %d)", schema.ErrConfiguration, overlap)
	}
	return nil
}

// Trigger reports whether a buffer that just grew to n records should be analyzed.
// Overlap must be positive.
func Trigger(n, size, overlap int) bool {
	return n%overlap == 0 && n >= size
}

// Latest returns the span of the last size records of a buffer of length n.
func Latest(n, size int) Span {
	return Bounds(-size, ToEnd, n)
}

// Bounds resolves start and end against a buffer of length n the way a slice
// expression with negative indices would: negatives count from the end and
// everything clamps to [0, n]. A start past the end yields an empty span.
func Bounds(start, end, n int) Span {
	s, e := clamp(start, n), clamp(end, n)
	if e < s {
		e = s
	}
	return Span{Start: s, End: e}
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
		return i
	}
	if i > n {
		return n
	}
	return i
}

// Plan returns the spans bulk analysis walks for a buffer of length n.
//
// LiteralBulk runs n/overlap iterations placing windows at i*size and stops at
// the first window whose end reaches n. SlidingBulk steps by overlap and keeps
// every full window.
func Plan(n, size, overlap int, mode schema.BulkMode) ([]Span, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}
	var spans []Span
	switch mode {
	case schema.SlidingBulk:
		for start := 0; start+size <= n; start += overlap {
			spans = append(spans, Span{Start: start, End: start + size})
		}
	case schema.LiteralBulk, "":
		for i := range n / overlap {
			start := i * size
			end := start + size
			if end >= n {
				break
			}
			spans = append(spans, Span{Start: start, End: end})
		}
	default:
		return nil, fmt.Errorf("%w: unknown bulk mode %q", schema.ErrConfiguration, mode)
	}
	return spans, nil
}
