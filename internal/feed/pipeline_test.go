package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/internal/persist"
	"github.com/huangsam/motionwin/schema"
)

func testConfig() *contract.Config {
	return &contract.Config{
		Relation:        schema.DefaultRelation,
		WindowSize:      4,
		WindowOverlap:   2,
		BulkMode:        schema.SlidingBulk,
		Coercion:        schema.StrictCoercion,
		ContextColumns:  schema.DefaultContextColumns,
		Workers:         2,
		Analyzer:        schema.PeakAnalyzer,
		PeakColumn:      "accel",
		PeakThreshold:   2.5,
		AnalysisTimeout: time.Second,
	}
}

func labels(as []schema.Analysis) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Value
	}
	return out
}

func TestPipelineIngest(t *testing.T) {
	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	res, err := NewPipeline(testConfig()).Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "skate", res.Collection.Name())
	assert.Equal(t, 8, res.Collection.Len())
	assert.Equal(t, int64(0), res.RunID)
	assert.Equal(t, []string{contract.NoJumpLabel, contract.JumpLabel, contract.JumpLabel}, labels(res.Analyses))
	assert.Equal(t, 2, res.Analyses[1].WindowStart)
	assert.Equal(t, 6, res.Analyses[1].WindowEnd)
	assert.Equal(t, "1020", res.Analyses[1].Start)
}

func TestPipelineExplicitRelation(t *testing.T) {
	cfg := testConfig()
	cfg.Relation = "jumps"
	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows[:1]...))
	require.NoError(t, err)

	res, err := NewPipeline(cfg).Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "jumps", res.Collection.Name())
}

func TestPipelineIngestWithoutAnalyzer(t *testing.T) {
	cfg := testConfig()
	cfg.Analyzer = schema.NoAnalyzer
	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	res, err := NewPipeline(cfg).Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, res.Analyses)
	assert.Equal(t, int64(3), res.Collection.Triggers())
}

func TestPipelineIngestSkipsFailedAnalyses(t *testing.T) {
	calls := 0
	flaky := contract.AnalyzerFunc(func(_ context.Context, w schema.Window) (schema.Analysis, error) {
		calls++
		if calls == 2 {
			return schema.Analysis{}, errors.New("sensor glitch")
		}
		return w.Describe("ok"), nil
	})
	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	res, err := NewPipeline(testConfig(), WithAnalyzer(flaky)).Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failures)
	assert.Len(t, res.Analyses, 2)
}

func TestPipelineIngestRecordsRun(t *testing.T) {
	store := new(contract.MockAnalysisStore)
	store.On("BeginRun", mock.AnythingOfType("string"), "skate", mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(5), nil).Once()
	store.On("RecordAnalysis", int64(5), mock.AnythingOfType("schema.Analysis")).Return(nil).Times(3)
	store.On("EndRun", int64(5), mock.AnythingOfType("time.Time"), 8, 3).Return(nil).Once()

	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	res, err := NewPipeline(testConfig(), WithStore(store)).Ingest(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.RunID)
	store.AssertExpectations(t)
}

func TestPipelineIngestBeginRunFails(t *testing.T) {
	store := new(contract.MockAnalysisStore)
	store.On("BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	_, err = NewPipeline(testConfig(), WithStore(store)).Ingest(context.Background(), src)
	assert.ErrorContains(t, err, "begin run")
}

func TestPipelineIngestScheduledExport(t *testing.T) {
	cfg := testConfig()
	cfg.ExportSchedule = "*/5 * * * *"
	cfg.OutputFile = filepath.Join(t.TempDir(), "snap.arff")

	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	_, err = NewPipeline(cfg).Ingest(context.Background(), src)
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "% 8 instances")
}

func TestPipelineIngestInterrupted(t *testing.T) {
	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewPipeline(testConfig()).Ingest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Collection.Len())
}

func TestPipelineAnalyze(t *testing.T) {
	store, err := persist.NewAnalysisStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	res, err := NewPipeline(testConfig(), WithStore(store)).Analyze(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{contract.NoJumpLabel, contract.JumpLabel, contract.JumpLabel}, labels(res.Analyses))
	assert.Equal(t, int64(0), res.Collection.Triggers())

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].RunID)
	assert.Equal(t, int32(8), runs[0].TotalRecords)
	assert.Equal(t, int32(3), runs[0].TotalAnalyses)

	stored, err := store.GetAllAnalyses()
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestPipelineAnalyzeLiteral(t *testing.T) {
	cfg := testConfig()
	cfg.BulkMode = schema.LiteralBulk
	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	res, err := NewPipeline(cfg).Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, res.Analyses, 1)
	assert.Equal(t, 0, res.Analyses[0].WindowStart)
	assert.Equal(t, 4, res.Analyses[0].WindowEnd)
}

func TestPipelineAnalyzeRequiresAnalyzer(t *testing.T) {
	cfg := testConfig()
	cfg.Analyzer = schema.NoAnalyzer
	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	_, err = NewPipeline(cfg).Analyze(context.Background(), src)
	assert.True(t, errors.Is(err, schema.ErrNoAnalyzer))
}

func TestPipelineBadPeakColumn(t *testing.T) {
	cfg := testConfig()
	cfg.PeakColumn = "gyro"
	src, err := OpenCSV(writeCSV(t, "skate.csv", sensorRows...))
	require.NoError(t, err)

	_, err = NewPipeline(cfg).Ingest(context.Background(), src)
	assert.True(t, errors.Is(err, schema.ErrUnknownAttribute))
}
