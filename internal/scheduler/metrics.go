package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPublisher counts lifecycle events as namespace_scheduler_events_total{event}.
// Register it with a prometheus registry and pass it as Config.Publisher.
type MetricsPublisher struct {
	events *prometheus.CounterVec
}

func NewMetricsPublisher(namespace string) *MetricsPublisher {
	p := &MetricsPublisher{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "events_total",
			Help:      "Work item lifecycle events by name",
		}, []string{"event"}),
	}
	// Pre-create every series so dashboards see zeros before the first item.
	for _, name := range []string{EventSubmitted, EventDispatched, EventRetry, EventSucceeded, EventFailed, EventRejected} {
		p.events.WithLabelValues(name)
	}
	return p
}

func (p *MetricsPublisher) Publish(e Event) { p.events.WithLabelValues(e.Name).Inc() }

func (p *MetricsPublisher) Describe(ch chan<- *prometheus.Desc) { p.events.Describe(ch) }
func (p *MetricsPublisher) Collect(ch chan<- prometheus.Metric)  { p.events.Collect(ch) }

// Publishers fans one event out to several publishers in order.
type Publishers []EventPublisher

func (ps Publishers) Publish(e Event) {
	for _, p := range ps {
		p.Publish(e)
	}
}
