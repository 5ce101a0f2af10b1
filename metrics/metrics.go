package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "batchkit"

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeInvalidJSON = "invalid_json"
)

// Metrics collects per-run counters on a private registry. All methods are
// safe on a nil receiver so callers can opt out.
type Metrics struct {
	reg *prometheus.Registry

	FetchesTotal   *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	FetchBytes     prometheus.Counter
	ArchiveEntries prometheus.Gauge
	ScannedFiles   prometheus.Counter
	RefinedTotal   *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		FetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Total number of URL fetch attempts.",
		}, []string{"outcome"}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of single URL fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Bytes received from successful fetches.",
		}),
		ArchiveEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_entries",
			Help:      "Entries in the most recently built archive.",
		}),
		ScannedFiles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scanned_files_total",
			Help:      "Files recorded by directory scans.",
		}),
		RefinedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refined_segments_total",
			Help:      "Segments sent through the language model.",
		}, []string{"outcome"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(d time.Duration, size int, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
	if err != nil {
		m.FetchesTotal.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	m.FetchesTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.FetchBytes.Add(float64(size))
}

// SetArchiveEntries records the size of a finished archive.
func (m *Metrics) SetArchiveEntries(n int) {
	if m == nil {
		return
	}
	m.ArchiveEntries.Set(float64(n))
}

// AddScannedFiles records files found by a scan.
func (m *Metrics) AddScannedFiles(n int) {
	if m == nil {
		return
	}
	m.ScannedFiles.Add(float64(n))
}

// ObserveRefine records one refined segment.
func (m *Metrics) ObserveRefine(outcome string) {
	if m == nil {
		return
	}
	m.RefinedTotal.WithLabelValues(outcome).Inc()
}

// WriteFile writes a text-format snapshot for the node_exporter textfile
// collector. An empty path is a no-op.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
