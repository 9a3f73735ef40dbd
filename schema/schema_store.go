package schema

import (
	"math"
	"time"
)

// RunRecord represents a row from the motionwin_runs table.
type RunRecord struct {
	RunID         int64
	CollectionID  string
	Relation      string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalRecords  int32
	TotalAnalyses int32
	ConfigParams  *string
}

// AnalysisRecord represents a row from the motionwin_analyses table.
type AnalysisRecord struct {
	RunID       int64
	Relation    string
	Label       string
	Session     string
	Athlete     string
	StartStamp  string
	EndStamp    string
	WindowStart int32
	WindowEnd   int32
	Records     int32
	AnalyzedAt  time.Time
}

// ToAnalysisRecord flattens an Analysis into its persisted row for the given run.
func ToAnalysisRecord(runID int64, a Analysis) AnalysisRecord {
	return AnalysisRecord{
		RunID:       runID,
		Relation:    a.Name,
		Label:       a.Value,
		Session:     a.Session,
		Athlete:     a.Athlete,
		StartStamp:  a.Start,
		EndStamp:    a.End,
		WindowStart: clampInt32(a.WindowStart),
		WindowEnd:   clampInt32(a.WindowEnd),
		Records:     clampInt32(a.Records),
		AnalyzedAt:  a.AnalyzedAt,
	}
}

// clampInt32 saturates n to the int32 range of the store columns.
func clampInt32(n int) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int32(n)
}
