package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/motionwin/internal/contract"
	"github.com/huangsam/motionwin/schema"
)

var analyzedAt = time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)

func sampleAnalyses() []schema.Analysis {
	return []schema.Analysis{
		{Name: "motion", Value: contract.JumpLabel, Athlete: "A1", Session: "S1", Start: "1000", End: "1049",
			WindowStart: 0, WindowEnd: 50, Records: 50, AnalyzedAt: analyzedAt},
		{Name: "motion", Value: contract.NoJumpLabel, Athlete: "A1", Session: "S1", Start: "1025", End: "1074",
			WindowStart: 25, WindowEnd: 75, Records: 50, AnalyzedAt: analyzedAt},
	}
}

func sampleTable() schema.Table {
	return schema.Table{
		Relation: "motion",
		Schema: schema.MustSchema(
			schema.Attribute{Name: "athlete", Type: schema.StringType},
			schema.Attribute{Name: "accel", Type: schema.RealType},
			schema.Attribute{Name: "ts", Type: schema.IntegerType},
		),
		Rows: []schema.Record{
			{schema.Text("A1"), schema.Real(0.12345), schema.Int(1000)},
			{schema.Text("A1"), schema.Missing(), schema.Int(1001)},
		},
	}
}

func testConfig(output schema.OutputMode, file string) *contract.Config {
	return &contract.Config{
		Output:       output,
		OutputFile:   file,
		Precision:    2,
		Workers:      4,
		StoreBackend: schema.NoneBackend,
	}
}

func TestWriteAnalysisTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnalysisTable(&buf, sampleAnalyses(), testConfig(schema.TextOut, ""), time.Second))

	out := buf.String()
	assert.Contains(t, out, "[25, 75)")
	assert.Contains(t, out, contract.NoJumpLabel)
	assert.Contains(t, out, "Showing 2 analyses (jump: 1)")
	assert.Contains(t, out, "with 4 workers. Store backend: none")
}

func TestWriteAnalysisCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnalysisCSV(&buf, sampleAnalyses()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "relation", rows[0][0])
	assert.Equal(t, []string{"motion", "jump", "A1", "S1", "1000", "1049", "0", "50", "50", "2026-05-04T03:02:01Z"}, rows[1])
}

func TestWriteAnalysisJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnalysisJSON(&buf, sampleAnalyses()))

	var decoded []schema.Analysis
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleAnalyses(), decoded)

	buf.Reset()
	require.NoError(t, writeAnalysisJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteAnalysisResultsToFile(t *testing.T) {
	dir := t.TempDir()

	csvFile := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteAnalysisResults(sampleAnalyses(), testConfig(schema.CSVOut, csvFile), 0))
	data, err := os.ReadFile(csvFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "not jump")

	pqFile := filepath.Join(dir, "out.parquet")
	require.NoError(t, NewOutWriter().WriteAnalyses(sampleAnalyses(), testConfig(schema.ParquetOut, pqFile), 0))
	info, err := os.Stat(pqFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteRecordCSV(t *testing.T) {
	var buf bytes.Buffer
	fmtFloat, _ := createFormatters(3)
	require.NoError(t, writeRecordCSV(&buf, sampleTable(), fmtFloat))
	assert.Equal(t, "athlete,accel,ts\nA1,0.123,1000\nA1,?,1001\n", buf.String())
}

func TestWriteRecordJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecordJSON(&buf, sampleTable()))

	var decoded struct {
		Relation string           `json:"relation"`
		Records  []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "motion", decoded.Relation)
	require.Len(t, decoded.Records, 2)
	assert.Equal(t, 0.12345, decoded.Records[0]["accel"])
	assert.Nil(t, decoded.Records[1]["accel"])
	assert.Equal(t, float64(1001), decoded.Records[1]["ts"])
}

func TestWriteRecordTable(t *testing.T) {
	var buf bytes.Buffer
	fmtFloat, _ := createFormatters(2)
	require.NoError(t, writeRecordTable(&buf, sampleTable(), fmtFloat))
	out := buf.String()
	assert.Contains(t, out, "0.12")
	assert.Contains(t, out, "?")
	assert.Contains(t, out, "Relation motion holds 2 records")
}

func TestWriteRecordResultsParquet(t *testing.T) {
	file := filepath.Join(t.TempDir(), "records.parquet")
	require.NoError(t, NewOutWriter().WriteRecords(sampleTable(), testConfig(schema.ParquetOut, file)))
	_, err := os.Stat(file)
	assert.NoError(t, err)
}

func TestWriteSummary(t *testing.T) {
	s := schema.CollectionSummary{
		ID:            "abc",
		Relation:      "motion",
		Attributes:    sampleTable().Schema.Attributes(),
		Records:       75,
		WindowSize:    50,
		WindowOverlap: 25,
		Triggers:      2,
	}

	var buf bytes.Buffer
	require.NoError(t, writeSummaryCSV(&buf, s))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"field", "value"}, rows[0])
	assert.Equal(t, []string{"triggers", "2"}, rows[6])
	assert.Equal(t, []string{"attribute_1", "accel (real)"}, rows[8])

	buf.Reset()
	require.NoError(t, writeSummaryTable(&buf, s))
	assert.Contains(t, buf.String(), "Collection motion")
	assert.Contains(t, buf.String(), "window_overlap")

	file := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, NewOutWriter().WriteSummary(s, testConfig(schema.JSONOut, file)))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var decoded schema.CollectionSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s, decoded)
}

func TestFormatValue(t *testing.T) {
	fmtFloat, _ := createFormatters(1)
	assert.Equal(t, "2.5", formatValue(schema.Real(2.46), fmtFloat))
	assert.Equal(t, "7", formatValue(schema.Int(7), fmtFloat))
	assert.Equal(t, "x y", formatValue(schema.Text("x y"), fmtFloat))
	assert.Equal(t, "?", formatValue(schema.Missing(), fmtFloat))
}

func TestGetMaxCellWidth(t *testing.T) {
	assert.Equal(t, 8, getMaxCellWidth(40, 50, 4))
	assert.Equal(t, 40, getMaxCellWidth(400, 0, 2))
	assert.Equal(t, 15, getMaxCellWidth(110, 50, 4))
	assert.Equal(t, 0, getMaxCellWidth(80, 0, 0))
}
