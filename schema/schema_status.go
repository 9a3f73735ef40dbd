package schema

import "time"

// StoreStatus represents the status of the analysis store.
type StoreStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalRuns        int              `json:"total_runs"`
	LastRunID        int64            `json:"last_run_id"`
	LastRunTime      time.Time        `json:"last_run_time"`
	OldestRunTime    time.Time        `json:"oldest_run_time"`
	TotalAnalyses    int              `json:"total_analyses"`
	TotalRecordsSeen int64            `json:"total_records_seen"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}

// CollectionSummary describes the in-memory state of a collection.
type CollectionSummary struct {
	ID            string      `json:"id"`
	Relation      string      `json:"relation"`
	Attributes    []Attribute `json:"attributes"`
	Records       int         `json:"records"`
	WindowSize    int         `json:"window_size"`
	WindowOverlap int         `json:"window_overlap"`
	Triggers      int64       `json:"triggers"`
}
