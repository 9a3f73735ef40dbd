package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/motionwin/internal/contract"
	mcp_internal "github.com/huangsam/motionwin/internal/mcp"
	"github.com/huangsam/motionwin/schema"
)

func baseConfig() *contract.Config {
	return &contract.Config{
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

func call(t *testing.T, s *mcp_internal.Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)
	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "handlers report failures in the result, not as errors")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func createSensors(t *testing.T, s *mcp_internal.Server) {
	t.Helper()
	res := call(t, s, "create_collection", map[string]any{
		"name":       "skate",
		"attributes": "athlete,session,accel:real,ts:int",
	})
	require.False(t, res.IsError, text(res))
}

func addRecord(t *testing.T, s *mcp_internal.Server, accel float64, ts float64) map[string]any {
	t.Helper()
	res := call(t, s, "add_record", map[string]any{
		"name":   "skate",
		"fields": map[string]any{"athlete": "A1", "session": "S1", "accel": accel, "ts": ts},
	})
	require.False(t, res.IsError, text(res))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(res)), &out))
	return out
}

func TestMCPServerCollectionFlow(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseConfig(), nil, nil, nil)
	defer s.Close()
	createSensors(t, s)

	accels := []float64{0.1, 0.2, 0.3, 0.4, 3.0, 0.1}
	var last map[string]any
	for i, a := range accels {
		last = addRecord(t, s, a, float64(1000+10*i))
		if i == 3 {
			require.NotNil(t, last["analysis"])
			assert.Equal(t, contract.NoJumpLabel, last["analysis"].(map[string]any)["value"])
		}
	}
	require.NotNil(t, last["analysis"])
	assert.Equal(t, contract.JumpLabel, last["analysis"].(map[string]any)["value"])
	assert.Equal(t, 6.0, last["records"])

	res := call(t, s, "analyze_window", map[string]any{"name": "skate", "start": -2.0})
	require.False(t, res.IsError, text(res))
	var a schema.Analysis
	require.NoError(t, json.Unmarshal([]byte(text(res)), &a))
	assert.Equal(t, 4, a.WindowStart)
	assert.Equal(t, 6, a.WindowEnd)
	assert.Equal(t, contract.JumpLabel, a.Value)

	res = call(t, s, "analyze_all", map[string]any{"name": "skate"})
	require.False(t, res.IsError, text(res))
	var all []schema.Analysis
	require.NoError(t, json.Unmarshal([]byte(text(res)), &all))
	assert.Len(t, all, 2)

	res = call(t, s, "describe_collection", map[string]any{"name": "skate"})
	require.False(t, res.IsError, text(res))
	var summary schema.CollectionSummary
	require.NoError(t, json.Unmarshal([]byte(text(res)), &summary))
	assert.Equal(t, 6, summary.Records)
	assert.Equal(t, int64(2), summary.Triggers)

	dest := filepath.Join(t.TempDir(), "skate.arff")
	res = call(t, s, "export_collection", map[string]any{"name": "skate", "path": dest})
	require.False(t, res.IsError, text(res))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "% 6 instances")
}

func TestMCPServerImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jumps.arff")
	require.NoError(t, os.WriteFile(path, []byte("@relation jumps\n@attribute athlete string\n@attribute session string\n@attribute accel real\n@attribute ts int\n@data\nA1,S1,0.5,1\nA1,S1,2.9,2\n"), 0o644))

	s := mcp_internal.NewMCPServer(baseConfig(), nil, nil, nil)
	defer s.Close()

	res := call(t, s, "import_file", map[string]any{"path": path})
	require.False(t, res.IsError, text(res))
	var summary schema.CollectionSummary
	require.NoError(t, json.Unmarshal([]byte(text(res)), &summary))
	assert.Equal(t, "jumps", summary.Relation)
	assert.Equal(t, 2, summary.Records)

	// A second import into the same collection appends.
	res = call(t, s, "import_file", map[string]any{"path": path, "name": "jumps"})
	require.False(t, res.IsError, text(res))
	require.NoError(t, json.Unmarshal([]byte(text(res)), &summary))
	assert.Equal(t, 4, summary.Records)

	res = call(t, s, "import_file", map[string]any{"path": filepath.Join(t.TempDir(), "missing.arff")})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "import failed")
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseConfig(), nil, nil, nil)
	defer s.Close()

	t.Run("unknown collection", func(t *testing.T) {
		res := call(t, s, "describe_collection", map[string]any{"name": "nope"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "unknown collection")
	})

	t.Run("bad attributes", func(t *testing.T) {
		res := call(t, s, "create_collection", map[string]any{"name": "x", "attributes": "a:date"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "invalid attributes")
	})

	t.Run("peak column missing from schema", func(t *testing.T) {
		res := call(t, s, "create_collection", map[string]any{"name": "x", "attributes": "a:real"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "unknown attribute")
	})

	t.Run("peak column override", func(t *testing.T) {
		res := call(t, s, "create_collection", map[string]any{"name": "gyro", "attributes": "g:real", "peak_column": "g"})
		assert.False(t, res.IsError, text(res))
	})

	t.Run("duplicate collection", func(t *testing.T) {
		createSensors(t, s)
		res := call(t, s, "create_collection", map[string]any{"name": "skate", "attributes": "a:real"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "already exists")
	})

	t.Run("fields not an object", func(t *testing.T) {
		res := call(t, s, "add_record", map[string]any{"name": "skate", "fields": "A1,S1"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "fields must be an object")
	})

	t.Run("empty window", func(t *testing.T) {
		res := call(t, s, "analyze_window", map[string]any{"name": "skate", "start": 0.0, "end": 0.0})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "empty window")
	})

	t.Run("store not initialized", func(t *testing.T) {
		res := call(t, s, "store_status", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "not initialized")
	})
}

func TestMCPServerRecordsRuns(t *testing.T) {
	store := new(contract.MockAnalysisStore)
	store.On("BeginRun", mock.AnythingOfType("string"), "skate", mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(3), nil).Once()
	store.On("RecordAnalysis", int64(3), mock.AnythingOfType("schema.Analysis")).Return(nil).Once()
	store.On("EndRun", int64(3), mock.AnythingOfType("time.Time"), 4, 1).Return(nil).Once()
	store.On("GetStatus").Return(schema.StoreStatus{Backend: "sqlite", Connected: true, TotalRuns: 1}, nil)

	mgr := new(contract.MockStoreManager)
	mgr.On("GetAnalysisStore").Return(store)

	s := mcp_internal.NewMCPServer(baseConfig(), mgr, nil, nil)
	createSensors(t, s)
	for i := range 4 {
		addRecord(t, s, 0.1, float64(i))
	}

	res := call(t, s, "store_status", map[string]any{})
	require.False(t, res.IsError, text(res))
	assert.Contains(t, text(res), `"total_runs": 1`)

	s.Close()
	store.AssertExpectations(t)
}

func TestNormalizeIntegerFields(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseConfig(), nil, nil, nil)
	defer s.Close()
	createSensors(t, s)

	res := call(t, s, "add_record", map[string]any{
		"name":   "skate",
		"fields": map[string]any{"athlete": "A1", "session": "S1", "accel": 0.5, "ts": 1.5},
	})
	require.False(t, res.IsError, text(res))

	dest := filepath.Join(t.TempDir(), "out.arff")
	call(t, s, "export_collection", map[string]any{"name": "skate", "path": dest})
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "A1,S1,0.5,?")
}
