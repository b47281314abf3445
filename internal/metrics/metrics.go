// Package metrics counts what each run did. Batch runs dump the registry
// to a node-exporter textfile; serve exposes it on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
)

type Metrics struct {
	Registry *prometheus.Registry

	Blocks          *prometheus.CounterVec // by source, kind
	SourceErrors    *prometheus.CounterVec // by source
	Candidates      *prometheus.CounterVec // by source
	Dropped         *prometheus.CounterVec // by reason
	JobsMerged      *prometheus.CounterVec // by outcome: added, replaced, unchanged
	JobsTotal       prometheus.Gauge
	ProspectsByTier *prometheus.GaugeVec
	RunDuration     *prometheus.HistogramVec // by stage
	LastSuccess     *prometheus.GaugeVec     // by stage, unix seconds
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Blocks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_blocks_total",
			Help: "Raw blocks fetched.",
		}, []string{"source", "kind"}),
		SourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_source_errors_total",
			Help: "Source adapters that failed.",
		}, []string{"source"}),
		Candidates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_candidates_total",
			Help: "Candidates produced by the extractor.",
		}, []string{"source"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_dropped_total",
			Help: "Blocks or candidates dropped before merge.",
		}, []string{"reason"}),
		JobsMerged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "treasury_jobs_merged_total",
			Help: "Merge outcomes per incoming record.",
		}, []string{"outcome"}),
		JobsTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "treasury_jobs",
			Help: "Records in the job store after the last run.",
		}),
		ProspectsByTier: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "treasury_prospects",
			Help: "Prospects per tier after the last scoring run.",
		}, []string{"tier"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "treasury_run_duration_seconds",
			Help:    "Wall time per pipeline stage.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"stage"}),
		LastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "treasury_last_success_timestamp_seconds",
			Help: "Unix time of the last successful stage run.",
		}, []string{"stage"}),
	}
}

// WriteTextfile dumps the registry for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return eris.Wrap(err, "metrics: write textfile")
	}
	return nil
}
