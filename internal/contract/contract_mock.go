package contract

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/motionwin/schema"
)

// MockAnalyzer is a mock implementation of Analyzer for testing.
type MockAnalyzer struct {
	mock.Mock
}

var _ Analyzer = &MockAnalyzer{} // Compile-time check

// Analyze implements the Analyzer interface.
func (m *MockAnalyzer) Analyze(ctx context.Context, w schema.Window) (schema.Analysis, error) {
	args := m.Called(ctx, w)
	a, _ := args.Get(0).(schema.Analysis)
	return a, args.Error(1)
}

// MockTableLoader is a mock implementation of TableLoader for testing.
type MockTableLoader struct {
	mock.Mock
}

var _ TableLoader = &MockTableLoader{} // Compile-time check

// Load implements the TableLoader interface.
func (m *MockTableLoader) Load(source string) (*schema.Table, error) {
	args := m.Called(source)
	t, _ := args.Get(0).(*schema.Table)
	return t, args.Error(1)
}

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ StoreManager = &MockStoreManager{} // Compile-time check

// GetAnalysisStore implements the StoreManager interface.
func (m *MockStoreManager) GetAnalysisStore() AnalysisStore {
	ret := m.Called()
	store, _ := ret.Get(0).(AnalysisStore)
	return store
}

// MockAnalysisStore is a mock implementation of AnalysisStore for testing.
type MockAnalysisStore struct {
	mock.Mock
}

var _ AnalysisStore = &MockAnalysisStore{} // Compile-time check

// BeginRun implements the AnalysisStore interface.
func (m *MockAnalysisStore) BeginRun(collectionID, relation string, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(collectionID, relation, startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the AnalysisStore interface.
func (m *MockAnalysisStore) EndRun(runID int64, endTime time.Time, totalRecords, totalAnalyses int) error {
	args := m.Called(runID, endTime, totalRecords, totalAnalyses)
	return args.Error(0)
}

// RecordAnalysis implements the AnalysisStore interface.
func (m *MockAnalysisStore) RecordAnalysis(runID int64, analysis schema.Analysis) error {
	args := m.Called(runID, analysis)
	return args.Error(0)
}

// GetAllRuns implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllAnalyses implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetAllAnalyses() ([]schema.AnalysisRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.AnalysisRecord)
	return records, args.Error(1)
}

// GetStatus implements the AnalysisStore interface.
func (m *MockAnalysisStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Clear implements the AnalysisStore interface.
func (m *MockAnalysisStore) Clear() error {
	return m.Called().Error(0)
}

// Close implements the AnalysisStore interface.
func (m *MockAnalysisStore) Close() error {
	return m.Called().Error(0)
}
