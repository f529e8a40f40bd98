package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const prefix = "jobstats_"

const (
	kindLabel    = "kind"
	outcomeLabel = "outcome"
	typeLabel    = "type"
)

// Metrics counts what happened during one aggregation run.
// Each instance has its own registry so that runs, and tests, never share counters.
type Metrics struct {
	registry *prometheus.Registry

	eventsProcessed *prometheus.CounterVec
	eventsSkipped   *prometheus.CounterVec
	anomalies       *prometheus.CounterVec
	malformedEvents prometheus.Counter
	sourcesRead     prometheus.Counter
	sourcesFailed   prometheus.Counter
	jobs            prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "events_processed_total",
				Help: "Number of events read from job logs",
			},
			[]string{kindLabel},
		),
		eventsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "events_skipped_total",
				Help: "Number of events that did not update any job",
			},
			[]string{outcomeLabel},
		),
		anomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "anomalies_total",
				Help: "Number of anomalies found while applying events",
			},
			[]string{typeLabel},
		),
		malformedEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "malformed_events_total",
				Help: "Number of log entries that could not be decoded",
			},
		),
		sourcesRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "sources_read_total",
				Help: "Number of job logs read to the end",
			},
		),
		sourcesFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "sources_failed_total",
				Help: "Number of job logs that could not be opened or read",
			},
		),
		jobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "jobs",
				Help: "Number of distinct jobs seen",
			},
		),
	}
	m.registry.MustRegister(
		m.eventsProcessed,
		m.eventsSkipped,
		m.anomalies,
		m.malformedEvents,
		m.sourcesRead,
		m.sourcesFailed,
		m.jobs,
	)
	return m
}

func (m *Metrics) RecordEvent(kind string) {
	m.eventsProcessed.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordSkip(outcome string) {
	m.eventsSkipped.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordAnomaly(anomalyType string) {
	m.anomalies.WithLabelValues(anomalyType).Inc()
}

func (m *Metrics) RecordMalformedEvent() {
	m.malformedEvents.Inc()
}

func (m *Metrics) RecordSourceRead() {
	m.sourcesRead.Inc()
}

func (m *Metrics) RecordSourceFailed() {
	m.sourcesFailed.Inc()
}

func (m *Metrics) SetJobs(n int) {
	m.jobs.Set(float64(n))
}

// Registry exposes the underlying registry, e.g. for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToTextfile writes all metrics in the text exposition format, suitable for the
// node exporter's textfile collector. The file is replaced atomically.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "error writing metrics to %s", path)
	}
	return nil
}
