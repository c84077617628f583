// Package metrics exposes process-local Prometheus collectors against
// a private registry, so this module stays embeddable as a library
// rather than fighting other users of the global default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the coordinator and worker touch.
type Metrics struct {
	registry *prometheus.Registry

	TicksTotal       *prometheus.CounterVec
	Population       *prometheus.GaugeVec
	JobsCreatedTotal prometheus.Counter
	JobsCompletedTotal prometheus.Counter
	JobDuration      prometheus.Histogram
}

// New registers every collector against a fresh, private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evo_ticks_total",
			Help: "Total simulation ticks processed, by island job id.",
		}, []string{"job_id"}),
		Population: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evo_population",
			Help: "Live organism count, sampled each telemetry interval.",
		}, []string{"job_id"}),
		JobsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evo_jobs_created_total",
			Help: "Total island jobs created by the coordinator.",
		}),
		JobsCompletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evo_jobs_completed_total",
			Help: "Total island jobs marked complete by the coordinator.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evo_job_duration_seconds",
			Help:    "Wall-clock duration of a completed island job, as reported by the worker.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.TicksTotal, m.Population, m.JobsCreatedTotal, m.JobsCompletedTotal, m.JobDuration)
	return m
}

// Handler serves Prometheus text exposition for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
