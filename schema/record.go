package schema

import (
	"strings"
	"time"
)

// Record is one fixed-width tuple of values in schema order.
type Record []Value

// String joins the values with commas, the way a data line is exported.
func (r Record) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

// Equal compares two records value by value.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// ContextColumns are the fixed columns an Analysis takes its context from.
type ContextColumns struct {
	Athlete   int `json:"athlete"`
	Session   int `json:"session"`
	Timestamp int `json:"timestamp"`
}

// DefaultContextColumns matches the sensor layout: athlete, session, a sensor field, timestamp.
var DefaultContextColumns = ContextColumns{Athlete: 0, Session: 1, Timestamp: 3}

// Window is a view over a contiguous run of buffered records.
// Start and End are absolute buffer indices, End exclusive.
type Window struct {
	Relation string
	Start    int
	End      int
	Records  []Record
	Columns  ContextColumns
	Schema   Schema // schema the records were buffered under; zero when unknown
}

// Len returns the number of records in the window.
func (w Window) Len() int { return len(w.Records) }

// First returns the first record, or nil for an empty window.
func (w Window) First() Record {
	if len(w.Records) == 0 {
		return nil
	}
	return w.Records[0]
}

// Last returns the last record, or nil for an empty window.
func (w Window) Last() Record {
	if len(w.Records) == 0 {
		return nil
	}
	return w.Records[len(w.Records)-1]
}

// Column returns the values of column i across the window.
// Records too short to have the column contribute Missing.
func (w Window) Column(i int) []Value {
	out := make([]Value, len(w.Records))
	for j, r := range w.Records {
		out[j] = cell(r, i)
	}
	return out
}

// Describe builds the Analysis for this window with the given label.
// Session, athlete and start come from the first record; end comes from the last.
func (w Window) Describe(label string) Analysis {
	first, last := w.First(), w.Last()
	return Analysis{
		Name:        w.Relation,
		Value:       label,
		Session:     cell(first, w.Columns.Session).String(),
		Athlete:     cell(first, w.Columns.Athlete).String(),
		Start:       cell(first, w.Columns.Timestamp).String(),
		End:         cell(last, w.Columns.Timestamp).String(),
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Records:     len(w.Records),
	}
}

func cell(r Record, i int) Value {
	if i < 0 || i >= len(r) {
		return Missing()
	}
	return r[i]
}

// Analysis is the labeled result of analyzing one window.
type Analysis struct {
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Session     string    `json:"session"`
	Athlete     string    `json:"athlete"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	WindowStart int       `json:"window_start"`
	WindowEnd   int       `json:"window_end"`
	Records     int       `json:"records"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
}

// Table is what the tabular file capability yields: a relation name, a schema and typed rows.
type Table struct {
	Relation string
	Schema   Schema
	Rows     []Record
}
