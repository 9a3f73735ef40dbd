package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huangsam/motionwin/schema"
)

// recordingAnalyzer labels every window "label" and keeps the windows it saw.
type recordingAnalyzer struct {
	mu      sync.Mutex
	windows []schema.Window
}

func (r *recordingAnalyzer) Analyze(_ context.Context, w schema.Window) (schema.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, w)
	return w.Describe("label"), nil
}

func (r *recordingAnalyzer) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

func sensorSchema() schema.Schema {
	return schema.MustSchema(
		schema.Attribute{Name: "athlete", Type: schema.StringType},
		schema.Attribute{Name: "session", Type: schema.StringType},
		schema.Attribute{Name: "accel", Type: schema.RealType},
		schema.Attribute{Name: "ts", Type: schema.IntegerType},
	)
}

func sensorFields(i int) map[string]any {
	return map[string]any{
		"athlete": "A1",
		"session": "S1",
		"accel":   float64(i) / 10,
		"ts":      int64(1000 + i),
	}
}

func newSensorCollection(t *testing.T, opts ...Option) *Collection {
	t.Helper()
	c, err := NewCollection("skate", sensorSchema(), opts...)
	require.NoError(t, err)
	return c
}

func fill(t *testing.T, c *Collection, n int) []*schema.Analysis {
	t.Helper()
	var out []*schema.Analysis
	for i := range n {
		a, err := c.AddRecord(context.Background(), sensorFields(i))
		require.NoError(t, err)
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}
