package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Load is the scheduler occupancy exported next to the counters.
type Load struct {
	Pending          int
	Retrying         int
	InFlight         int
	ConcurrencyLimit int
}

// Exporter is a prometheus.Collector reading a Collector snapshot (and
// optionally live load) at scrape time.
type Exporter struct {
	c    *Collector
	load func() Load

	completed *prometheus.Desc
	succeeded *prometheus.Desc
	failed    *prometheus.Desc
	retries   *prometheus.Desc
	latency   *prometheus.Desc
	pending   *prometheus.Desc
	retrying  *prometheus.Desc
	inflight  *prometheus.Desc
	limit     *prometheus.Desc
}

// NewExporter builds an exporter under namespace_scheduler_*. load may be nil.
func NewExporter(namespace string, c *Collector, load func() Load) *Exporter {
	d := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "scheduler", name), help, nil, nil)
	}
	return &Exporter{
		c:         c,
		load:      load,
		completed: d("completed_total", "Work items that reached a terminal outcome"),
		succeeded: d("succeeded_total", "Work items that succeeded"),
		failed:    d("failed_total", "Work items that failed terminally"),
		retries:   d("retries_total", "Retries scheduled after transient failures"),
		latency:   d("latency_ema_milliseconds", "Exponential moving average of submit-to-outcome latency"),
		pending:   d("pending", "Work items waiting for a slot"),
		retrying:  d("retrying", "Work items waiting out a retry backoff"),
		inflight:  d("in_flight", "Attempts currently running"),
		limit:     d("concurrency_limit", "Maximum concurrent attempts"),
	}
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.completed
	ch <- e.succeeded
	ch <- e.failed
	ch <- e.retries
	ch <- e.latency
	if e.load != nil {
		ch <- e.pending
		ch <- e.retrying
		ch <- e.inflight
		ch <- e.limit
	}
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.c.Snapshot()
	ch <- prometheus.MustNewConstMetric(e.completed, prometheus.CounterValue, float64(s.TotalCompleted))
	ch <- prometheus.MustNewConstMetric(e.succeeded, prometheus.CounterValue, float64(s.TotalSucceeded))
	ch <- prometheus.MustNewConstMetric(e.failed, prometheus.CounterValue, float64(s.TotalFailed))
	ch <- prometheus.MustNewConstMetric(e.retries, prometheus.CounterValue, float64(s.TotalRetries))
	ch <- prometheus.MustNewConstMetric(e.latency, prometheus.GaugeValue, s.AverageLatencyMs)
	if e.load == nil {
		return
	}
	l := e.load()
	ch <- prometheus.MustNewConstMetric(e.pending, prometheus.GaugeValue, float64(l.Pending))
	ch <- prometheus.MustNewConstMetric(e.retrying, prometheus.GaugeValue, float64(l.Retrying))
	ch <- prometheus.MustNewConstMetric(e.inflight, prometheus.GaugeValue, float64(l.InFlight))
	ch <- prometheus.MustNewConstMetric(e.limit, prometheus.GaugeValue, float64(l.ConcurrencyLimit))
}
