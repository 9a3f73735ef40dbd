// Package metrics has the prometheus collectors for ingestion and analysis.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "motionwin"

// Label names.
const (
	LabelRelation  = "relation"
	LabelAttribute = "attribute"
	LabelPath      = "path" // "ingest", "window" or "bulk"
	LabelOutcome   = "outcome"
)

// Analysis paths.
const (
	PathIngest = "ingest"
	PathWindow = "window"
	PathBulk   = "bulk"
)

// Collectors holds every motionwin collector registered on one registry.
// A nil *Collectors is valid and records nothing.
type Collectors struct {
	registry *prometheus.Registry

	recordsIngested  *prometheus.CounterVec
	coercionWarnings *prometheus.CounterVec
	windowTriggers   *prometheus.CounterVec
	analyses         *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	bufferedRecords  *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collectors{
		registry: reg,
		recordsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Total number of records appended",
		}, []string{LabelRelation}),
		coercionWarnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "coercion_warnings_total",
			Help:      "Total number of fields that could not be coerced to their attribute type",
		}, []string{LabelRelation, LabelAttribute}),
		windowTriggers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "window",
			Name:      "triggers_total",
			Help:      "Total number of times the window trigger fired",
		}, []string{LabelRelation}),
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "total",
			Help:      "Total number of analyzer calls by path and outcome",
		}, []string{LabelRelation, LabelPath, LabelOutcome}),
		analysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analyzer call latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{LabelRelation, LabelPath}),
		bufferedRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "buffer",
			Name:      "records",
			Help:      "Number of records currently buffered",
		}, []string{LabelRelation}),
	}
}

// Registry returns the registry the collectors live on.
func (c *Collectors) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordIngested counts one appended record and sets the buffer gauge.
func (c *Collectors) RecordIngested(relation string, buffered int) {
	if c == nil {
		return
	}
	c.recordsIngested.WithLabelValues(relation).Inc()
	c.bufferedRecords.WithLabelValues(relation).Set(float64(buffered))
}

// SetBuffered sets the buffer gauge after a bulk change such as an import.
func (c *Collectors) SetBuffered(relation string, buffered int) {
	if c == nil {
		return
	}
	c.bufferedRecords.WithLabelValues(relation).Set(float64(buffered))
}

// CoercionWarning counts one field that degraded to missing.
func (c *Collectors) CoercionWarning(relation, attribute string) {
	if c == nil {
		return
	}
	c.coercionWarnings.WithLabelValues(relation, attribute).Inc()
}

// WindowTriggered counts one trigger firing.
func (c *Collectors) WindowTriggered(relation string) {
	if c == nil {
		return
	}
	c.windowTriggers.WithLabelValues(relation).Inc()
}

// ObserveAnalysis records one analyzer call.
func (c *Collectors) ObserveAnalysis(relation, path string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.analyses.WithLabelValues(relation, path, outcome).Inc()
	c.analysisDuration.WithLabelValues(relation, path).Observe(elapsed.Seconds())
}

// WriteFile writes the text exposition of every collector to filename.
func (c *Collectors) WriteFile(filename string) error {
	if c == nil || filename == "" {
		return nil
	}
	return prometheus.WriteToTextfile(filename, c.registry)
}
