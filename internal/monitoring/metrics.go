// Package monitoring collects pipeline metrics using Prometheus
// collectors on a caller-owned registry. There is no network exposition;
// the final report gathers values directly from the registry.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all pipeline metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Stage metrics
	StageProcessed *prometheus.CounterVec
	StageErrors    *prometheus.CounterVec

	// Flow metrics
	RecordsProduced  prometheus.Counter
	RecordsRequeued  prometheus.Counter
	RecordsCollected prometheus.Counter

	// Run metrics
	RunDuration prometheus.Histogram
}

// New creates pipeline metrics registered on a fresh registry, so
// independent runs (and tests) never interfere.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StageProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordflow_stage_processed_total",
			Help: "Records processed per stage",
		}, []string{"stage"}),
		StageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordflow_stage_errors_total",
			Help: "Fatal stage errors",
		}, []string{"stage"}),
		RecordsProduced: factory.NewCounter(prometheus.CounterOpts{
			Name: "recordflow_records_produced_total",
			Help: "Records emitted by the producer",
		}),
		RecordsRequeued: factory.NewCounter(prometheus.CounterOpts{
			Name: "recordflow_records_requeued_total",
			Help: "Records routed through the feedback channel",
		}),
		RecordsCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "recordflow_records_collected_total",
			Help: "Records collected by the terminal stage",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recordflow_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
	}
}

// ObserveRun records a completed run's duration.
func (m *Metrics) ObserveRun(d time.Duration) {
	m.RunDuration.Observe(d.Seconds())
}

// Snapshot reads current counter values for the report.
type Snapshot struct {
	Produced  float64
	Requeued  float64
	Collected float64
	PerStage  map[string]float64
}

// Gather extracts a snapshot of the flow counters from the registry.
func (m *Metrics) Gather() (*Snapshot, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{PerStage: make(map[string]float64)}
	for _, mf := range families {
		switch mf.GetName() {
		case "recordflow_records_produced_total":
			snap.Produced = firstCounter(mf)
		case "recordflow_records_requeued_total":
			snap.Requeued = firstCounter(mf)
		case "recordflow_records_collected_total":
			snap.Collected = firstCounter(mf)
		case "recordflow_stage_processed_total":
			for _, m := range mf.GetMetric() {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "stage" {
						snap.PerStage[lp.GetValue()] = m.GetCounter().GetValue()
					}
				}
			}
		}
	}
	return snap, nil
}

func firstCounter(mf *dto.MetricFamily) float64 {
	ms := mf.GetMetric()
	if len(ms) == 0 {
		return 0
	}
	return ms[0].GetCounter().GetValue()
}
