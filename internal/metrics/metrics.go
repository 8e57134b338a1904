// Package metrics exposes Prometheus collectors for the timeline engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feedline"

// Collectors owns one Prometheus registry and the engine's collectors.
// Each Collectors is independent, so tests can create as many as they like.
type Collectors struct {
	registry *prometheus.Registry

	EventsDispatched *prometheus.CounterVec
	QueueEvictions   prometheus.Counter
	CascadeRemovals  prometheus.Counter
	JournalErrors    prometheus.Counter
	Timelines        prometheus.Gauge
}

// New registers a fresh set of collectors. When withRuntime is true the Go
// runtime and process collectors are registered too.
func New(withRuntime bool) *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		EventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Events reduced into the timeline registry, by kind.",
		}, []string{"kind"}),
		QueueEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_evictions_total",
			Help:      "Queued status ids dropped by the queue cap.",
		}),
		CascadeRemovals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_removals_total",
			Help:      "Status ids removed from timelines by deletes and filters.",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_errors_total",
			Help:      "Events that could not be journaled.",
		}),
		Timelines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timelines",
			Help:      "Timelines currently held in the registry.",
		}),
	}

	c.registry.MustRegister(
		c.EventsDispatched,
		c.QueueEvictions,
		c.CascadeRemovals,
		c.JournalErrors,
		c.Timelines,
	)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveDispatch records one reduced event.
func (c *Collectors) ObserveDispatch(kind string, evicted, removed, timelines int) {
	c.EventsDispatched.WithLabelValues(kind).Inc()
	if evicted > 0 {
		c.QueueEvictions.Add(float64(evicted))
	}
	if removed > 0 {
		c.CascadeRemovals.Add(float64(removed))
	}
	c.Timelines.Set(float64(timelines))
}

// ObserveJournalError records a failed journal write.
func (c *Collectors) ObserveJournalError() {
	c.JournalErrors.Inc()
}
