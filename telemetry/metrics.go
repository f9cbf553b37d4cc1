// Package telemetry wires the pipeline's observer and progress-tracking
// seams to prometheus, in the teacher's constructor-injection idiom: one
// struct holding pre-registered collectors, built once at startup and
// passed down instead of reached for through a global registry.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"lobrecon/domain/lob"
)

// Metrics is the process-wide collector set. It implements
// domain/lob.Observer directly so an Engine can report anomalies straight
// into prometheus without an adapter type.
type Metrics struct {
	AnomaliesTotal  *prometheus.CounterVec
	CodecRatio      prometheus.Histogram
	PhaseDuration   *prometheus.HistogramVec
	ProgressTimeIdx *prometheus.GaugeVec
	RunInfo         *prometheus.GaugeVec
}

// New registers every collector against reg and returns the bound Metrics.
// A caller not wiring a /metrics endpoint can pass prometheus.NewRegistry()
// and simply never serve it.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnomaliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engine_anomalies_total",
			Help: "Count of lob.Observer.AnomalyDetected callbacks, by asset.",
		}, []string{"asset"}),
		CodecRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codec_ratio",
			Help:    "Compressed bytes over raw bytes for one encoded event log.",
			Buckets: prometheus.LinearBuckets(0.05, 0.05, 20),
		}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "pipeline_phase_duration_seconds",
			Help: "Wall-clock duration of one Orchestrator.RunDate phase.",
		}, []string{"phase"}),
		ProgressTimeIdx: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "progress_time_index",
			Help: "Latest time index a sequential worker has advanced past, by level and worker.",
		}, []string{"level", "worker"}),
		RunInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_run_info",
			Help: "Constant 1, labeled by the UUID Orchestrator generated for this run.",
		}, []string{"run_id"}),
	}

	reg.MustRegister(m.AnomaliesTotal, m.CodecRatio, m.PhaseDuration, m.ProgressTimeIdx, m.RunInfo)
	return m
}

// SetRunID stamps the run-info gauge with id, the standard "*_info" gauge
// pattern for attaching a label-only identifier to a metrics stream
// without inflating the cardinality of every other series.
func (m *Metrics) SetRunID(id string) {
	m.RunInfo.Reset()
	m.RunInfo.WithLabelValues(id).Set(1)
}

// AnomalyDetected implements domain/lob.Observer.
func (m *Metrics) AnomalyDetected(ad lob.AssetDate, _ lob.Price) {
	m.AnomaliesTotal.WithLabelValues(ad.Asset).Inc()
}

// ObserveCodecRatio records one event log's compressed/raw byte ratio.
func (m *Metrics) ObserveCodecRatio(compressed, raw int) {
	if raw == 0 {
		return
	}
	m.CodecRatio.Observe(float64(compressed) / float64(raw))
}

// PhaseTimer returns a func to call when phase finishes; the elapsed time
// is recorded into PhaseDuration under that phase's label.
func (m *Metrics) PhaseTimer(phase string) func() {
	timer := prometheus.NewTimer(m.PhaseDuration.WithLabelValues(phase))
	return func() { timer.ObserveDuration() }
}

// SetProgress records the time index a worker on a given level has
// advanced past, matching what feature.Store.AdvanceProgress tracks
// internally but exposed for dashboards rather than the bounded-wait fence.
func (m *Metrics) SetProgress(level string, worker int, t int) {
	m.ProgressTimeIdx.WithLabelValues(level, strconv.Itoa(worker)).Set(float64(t))
}
