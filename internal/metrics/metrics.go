// Package metrics exposes Prometheus metrics for cleaning runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "txclean"

// Run statuses used as the status label.
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
	StatusSkipped  = "skipped"
)

// Metrics holds the collectors for one registry.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	activeRuns   prometheus.Gauge
	rowsIn       prometheus.Counter
	rowsOut      prometheus.Counter
	rowsRemoved  *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	findings     *prometheus.CounterVec
}

// New creates metrics registered on a fresh registry. Go runtime and
// process collectors are included.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of cleaning runs by outcome",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end duration of cleaning runs",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Number of cleaning runs in progress",
		}),
		rowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Rows read from input files",
		}),
		rowsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows remaining after cleaning",
		}),
		rowsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_removed_total",
			Help:      "Rows removed by each cleaning step",
		}, []string{"step"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each cleaning step",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"step"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Columns flagged by validators, by error kind",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.activeRuns,
		m.rowsIn,
		m.rowsOut,
		m.rowsRemoved,
		m.stepDuration,
		m.findings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RunStarted marks a run as in progress. Call the returned func when it ends.
func (m *Metrics) RunStarted() (done func()) {
	m.activeRuns.Inc()
	return m.activeRuns.Dec
}

// RunFinished records the outcome and duration of a run.
func (m *Metrics) RunFinished(status string, d time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
}

// ObserveRows records row counts before and after cleaning.
func (m *Metrics) ObserveRows(in, out int) {
	m.rowsIn.Add(float64(in))
	m.rowsOut.Add(float64(out))
}

// ObserveSteps records per-step removals and durations.
func (m *Metrics) ObserveSteps(steps []core.StepSummary) {
	for _, s := range steps {
		m.stepDuration.WithLabelValues(s.Step).Observe(s.Duration.Seconds())
		if removed := s.RowsRemoved(); removed > 0 {
			m.rowsRemoved.WithLabelValues(s.Step).Add(float64(removed))
		}
	}
}

// ObserveReport counts flagged columns per error kind.
func (m *Metrics) ObserveReport(r core.ErrorReport) {
	if r.IsEmptyDataset() {
		return
	}
	for _, kind := range []core.ErrorKind{core.NullValues, core.DuplicatedValues, core.TypeError} {
		if n := r.Count(kind); n > 0 {
			m.findings.WithLabelValues(string(kind)).Add(float64(n))
		}
	}
}
