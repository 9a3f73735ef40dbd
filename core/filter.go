package core

import (
	"fmt"

	"github.com/huangsam/motionwin/schema"
)

// Filter returns the records whose named attributes equal the given values.
// Missing matches missing.
func (c *Collection) Filter(names []string, values []schema.Value) ([]schema.Record, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d filter names but %d values", schema.ErrSchemaMismatch, len(names), len(values))
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	cols := make([]int, len(names))
	for i, name := range names {
		idx, ok := c.schema.Index(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", schema.ErrUnknownAttribute, name)
		}
		cols[i] = idx
	}

	var out []schema.Record
	for _, r := range c.records {
		if matches(r, cols, values) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matches(r schema.Record, cols []int, values []schema.Value) bool {
	for i, col := range cols {
		if !r[col].Equal(values[i]) {
			return false
		}
	}
	return true
}
