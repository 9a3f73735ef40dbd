package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/motionwin/core"
	"github.com/huangsam/motionwin/schema"
)

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	c, err := core.NewCollection("motion", schema.MustSchema(schema.Attribute{Name: "a", Type: schema.IntegerType}))
	require.NoError(t, err)
	_, err = NewScheduler("every now and then", c, "out.arff", nil)
	assert.ErrorContains(t, err, "invalid export schedule")
}

func TestSchedulerExportNow(t *testing.T) {
	c, err := core.NewCollection("motion", schema.MustSchema(schema.Attribute{Name: "a", Type: schema.IntegerType}))
	require.NoError(t, err)
	_, err = c.AddRecord(context.Background(), map[string]any{"a": 1})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snap.arff")
	s, err := NewScheduler("*/5 * * * *", c, dest, nil)
	require.NoError(t, err)

	s.ExportNow()
	s.ExportNow()
	assert.Equal(t, int64(2), s.Exports())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "@relation motion")
	assert.Equal(t, 1, strings.Count(string(data), "\n1\n"))

	bad, err := NewScheduler("*/5 * * * *", c, filepath.Join(t.TempDir(), "missing", "x.arff"), nil)
	require.NoError(t, err)
	bad.ExportNow()
	assert.Equal(t, int64(0), bad.Exports())
}

func TestSchedulerRunStopsWithContext(t *testing.T) {
	c, err := core.NewCollection("motion", schema.MustSchema(schema.Attribute{Name: "a", Type: schema.IntegerType}))
	require.NoError(t, err)
	s, err := NewScheduler("*/5 * * * *", c, filepath.Join(t.TempDir(), "x.arff"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx))
}
