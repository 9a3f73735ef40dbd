package core

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/motionwin/core/window"
	"github.com/huangsam/motionwin/internal/analyzer"
	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newSensorCollection(t)
	fill(t, src, 30)
	_, err := src.AddRecord(t.Context(), map[string]any{"athlete": "Ann Lee", "session": "?", "ts": 5})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.arff")
	require.NoError(t, src.Export(path, false))

	dst := newSensorCollection(t)
	require.NoError(t, dst.Import(path))

	assert.True(t, src.Schema().Equal(dst.Schema()))
	want, got := src.Records(), dst.Records()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "record %d: %s vs %s", i, want[i], got[i])
	}
}

func TestExportFormat(t *testing.T) {
	c := newSensorCollection(t)
	fill(t, c, 2)

	var buf bytes.Buffer
	require.NoError(t, c.ExportTo(&buf))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"@relation skate",
		"@attribute athlete string",
		"@attribute session string",
		"@attribute accel real",
		"@attribute ts int",
		"@data",
		"%",
		"% 2 instances",
		"%",
		"A1,S1,0,1000",
		"A1,S1,0.1,1001",
		"%",
		"%",
		"%",
	}, lines)
}

func TestExportAppendAndTruncate(t *testing.T) {
	c := newSensorCollection(t)
	fill(t, c, 3)
	path := filepath.Join(t.TempDir(), "out.arff")

	require.NoError(t, c.Export(path, false))
	require.NoError(t, c.Export(path, true))

	dst := newSensorCollection(t)
	require.NoError(t, dst.Import(path))
	assert.Equal(t, 6, dst.Len())

	require.NoError(t, c.Export(path, false))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "@relation"))
}

func TestExportBadDestination(t *testing.T) {
	c := newSensorCollection(t)
	err := c.Export(filepath.Join(t.TempDir(), "missing", "out.arff"), false)
	assert.Error(t, err)
}

func TestImportLoaderFailureLeavesState(t *testing.T) {
	loader := &contract.MockTableLoader{}
	loader.On("Load", "bad.arff").Return(nil, errors.New("unreadable"))

	c := newSensorCollection(t, WithLoader(loader))
	fill(t, c, 3)

	err := c.Import("bad.arff")
	assert.True(t, errors.Is(err, schema.ErrImport))
	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Schema().Equal(sensorSchema()))
	loader.AssertExpectations(t)
}

func TestImportWidthGuard(t *testing.T) {
	narrow := &schema.Table{
		Relation: "other",
		Schema:   schema.MustSchema(schema.Attribute{Name: "x", Type: schema.RealType}),
		Rows:     []schema.Record{{schema.Real(1)}},
	}
	loader := &contract.MockTableLoader{}
	loader.On("Load", "narrow.arff").Return(narrow, nil)

	c := newSensorCollection(t, WithLoader(loader))
	fill(t, c, 2)
	err := c.Import("narrow.arff")
	assert.True(t, errors.Is(err, schema.ErrSchemaMismatch))
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Schema().Equal(sensorSchema()))

	// An empty collection takes the new schema wholesale.
	empty := newSensorCollection(t, WithLoader(loader))
	require.NoError(t, empty.Import("narrow.arff"))
	assert.Equal(t, []string{"x"}, empty.Schema().Names())
	assert.Equal(t, 1, empty.Len())
}

func TestImportRenamesAttributes(t *testing.T) {
	renamed := &schema.Table{
		Relation: "skate",
		Schema: schema.MustSchema(
			schema.Attribute{Name: "a", Type: schema.StringType},
			schema.Attribute{Name: "b", Type: schema.StringType},
			schema.Attribute{Name: "c", Type: schema.RealType},
			schema.Attribute{Name: "d", Type: schema.IntegerType},
		),
		Rows: []schema.Record{{schema.Text("x"), schema.Text("y"), schema.Real(1), schema.Int(2)}},
	}
	loader := &contract.MockTableLoader{}
	loader.On("Load", "renamed.arff").Return(renamed, nil)

	c := newSensorCollection(t, WithLoader(loader))
	fill(t, c, 2)
	require.NoError(t, c.Import("renamed.arff"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, c.Schema().Names())
	assert.Equal(t, 3, c.Len())
}

func TestImportRejectsRaggedRows(t *testing.T) {
	ragged := &schema.Table{
		Schema: sensorSchema(),
		Rows:   []schema.Record{{schema.Text("x")}},
	}
	loader := &contract.MockTableLoader{}
	loader.On("Load", "ragged.arff").Return(ragged, nil)

	c := newSensorCollection(t, WithLoader(loader))
	err := c.Import("ragged.arff")
	assert.True(t, errors.Is(err, schema.ErrImport))
	assert.True(t, errors.Is(err, schema.ErrSchemaMismatch))
	assert.Equal(t, 0, c.Len())
}

func TestImportReorderedSchemaKeepsPeakColumn(t *testing.T) {
	reordered := schema.MustSchema(
		schema.Attribute{Name: "accel", Type: schema.RealType},
		schema.Attribute{Name: "ts", Type: schema.IntegerType},
		schema.Attribute{Name: "athlete", Type: schema.StringType},
		schema.Attribute{Name: "session", Type: schema.StringType},
	)
	table := &schema.Table{Relation: "skate", Schema: reordered}
	for i := range 4 {
		table.Rows = append(table.Rows, schema.Record{
			schema.Real(4.0), schema.Int(int64(2000 + i)), schema.Text("A2"), schema.Text("S9"),
		})
	}
	loader := &contract.MockTableLoader{}
	loader.On("Load", "reordered.arff").Return(table, nil)

	peak, err := analyzer.NewPeak(sensorSchema(), "accel", 2.5)
	require.NoError(t, err)
	c := newSensorCollection(t, WithLoader(loader), WithAnalyzer(peak))
	fill(t, c, 2)
	require.NoError(t, c.Import("reordered.arff"))

	a, err := c.AnalyzeWindow(t.Context(), -4, window.ToEnd)
	require.NoError(t, err)
	assert.Equal(t, contract.JumpLabel, a.Value)
}

func TestImportDroppingPeakColumnFailsAnalysis(t *testing.T) {
	table := &schema.Table{
		Relation: "skate",
		Schema: schema.MustSchema(
			schema.Attribute{Name: "a", Type: schema.StringType},
			schema.Attribute{Name: "b", Type: schema.StringType},
			schema.Attribute{Name: "c", Type: schema.RealType},
			schema.Attribute{Name: "d", Type: schema.IntegerType},
		),
		Rows: []schema.Record{{schema.Text("x"), schema.Text("y"), schema.Real(9), schema.Int(2)}},
	}
	loader := &contract.MockTableLoader{}
	loader.On("Load", "renamed.arff").Return(table, nil)

	peak, err := analyzer.NewPeak(sensorSchema(), "accel", 2.5)
	require.NoError(t, err)
	c := newSensorCollection(t, WithLoader(loader), WithAnalyzer(peak))
	require.NoError(t, c.Import("renamed.arff"))

	_, err = c.AnalyzeWindow(t.Context(), 0, window.ToEnd)
	assert.True(t, errors.Is(err, schema.ErrUnknownAttribute))
}
