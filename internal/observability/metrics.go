package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	filesTotal      *prometheus.CounterVec
	referencesTotal *prometheus.CounterVec
	rulesTotal      *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rulexpand_files_total", Help: "Input files processed"},
			[]string{"result"},
		),
		referencesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rulexpand_references_total", Help: "Reference directives resolved"},
			[]string{"kind", "result"},
		),
		rulesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "rulexpand_rules_total", Help: "Rules written to output files"},
			[]string{"kind"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulexpand_fetch_duration_seconds",
				Help:    "Remote fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.filesTotal,
		m.referencesTotal,
		m.rulesTotal,
		m.fetchDuration,
	)

	return m
}

func (m *Metrics) ObserveFile(ok bool) {
	if m == nil {
		return
	}
	m.filesTotal.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) ObserveReference(kind string, ok bool, took time.Duration) {
	if m == nil {
		return
	}
	m.referencesTotal.WithLabelValues(kind, result(ok)).Inc()
	m.fetchDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// ObserveRules adds per-kind rule counts of one written file.
func (m *Metrics) ObserveRules(counts map[string]int) {
	if m == nil {
		return
	}
	for kind, n := range counts {
		m.rulesTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// WriteTextfile exports the gathered metrics in the text exposition format,
// suitable for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return prometheus.WriteToTextfile(path, g)
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
