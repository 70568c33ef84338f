package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics counts what one export run dropped and produced. Each run owns
// its registry; the CLI exits after a run so nothing is scraped, the
// registry is pushed to a Pushgateway instead.
type Metrics struct {
	reg *prometheus.Registry

	versesSkipped   prometheus.Counter
	edgesSeen       prometheus.Counter
	edgesDropped    *prometheus.CounterVec
	groupsExpanded  prometheus.Counter
	groupsEmpty     prometheus.Counter
	datasetRecords  *prometheus.GaugeVec
	datasetBytes    *prometheus.GaugeVec
	stageDuration   *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	lastSuccessUnix prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		versesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "logosgraph_export",
			Name:      "verses_skipped_total",
			Help:      "Verses dropped because their book is not in the canonical order.",
		}),
		edgesSeen: f.NewCounter(prometheus.CounterOpts{
			Namespace: "logosgraph_export",
			Name:      "cross_references_seen_total",
			Help:      "Cross-reference edges read from the corpus.",
		}),
		edgesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logosgraph_export",
			Name:      "cross_references_dropped_total",
			Help:      "Cross-reference edges left out of every bucket, by reason.",
		}, []string{"reason"}),
		groupsExpanded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "logosgraph_export",
			Name:      "passage_groups_expanded_total",
			Help:      "Distinct passage groups fetched from the corpus.",
		}),
		groupsEmpty: f.NewCounter(prometheus.CounterOpts{
			Namespace: "logosgraph_export",
			Name:      "passage_groups_empty_total",
			Help:      "Passage groups that resolved to no members.",
		}),
		datasetRecords: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "logosgraph_export",
			Name:      "dataset_records",
			Help:      "Records written per dataset file.",
		}, []string{"dataset"}),
		datasetBytes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "logosgraph_export",
			Name:      "dataset_bytes",
			Help:      "Encoded size per dataset file.",
		}, []string{"dataset"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "logosgraph_export",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage"}),
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logosgraph_export",
			Name:      "runs_total",
			Help:      "Export runs by outcome.",
		}, []string{"command", "outcome"}),
		lastSuccessUnix: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "logosgraph_export",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful export.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) VersesSkipped(n int) { m.versesSkipped.Add(float64(n)) }

func (m *Metrics) EdgesSeen(n int) { m.edgesSeen.Add(float64(n)) }

func (m *Metrics) EdgesDropped(reason string, n int) {
	m.edgesDropped.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) Groups(fetched, empty int) {
	m.groupsExpanded.Add(float64(fetched))
	m.groupsEmpty.Add(float64(empty))
}

func (m *Metrics) Dataset(name string, records, bytes int) {
	m.datasetRecords.WithLabelValues(name).Set(float64(records))
	m.datasetBytes.WithLabelValues(name).Set(float64(bytes))
}

func (m *Metrics) Stage(name string, seconds float64) {
	m.stageDuration.WithLabelValues(name).Observe(seconds)
}

func (m *Metrics) Run(command string, err error, unixNow int64) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runsTotal.WithLabelValues(command, outcome).Inc()
	if err == nil {
		m.lastSuccessUnix.Set(float64(unixNow))
	}
}

// Push sends the registry to a Pushgateway under job, grouped by run id.
// An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url, job, runID string) error {
	if url == "" {
		return nil
	}
	p := push.New(url, job).Gatherer(m.reg)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
