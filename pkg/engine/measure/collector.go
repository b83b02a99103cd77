package measure

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a Measure to prometheus. Values are read from the measure on every scrape.
type Collector struct {
	msr       Measure
	events    *prometheus.Desc
	dropped   *prometheus.Desc
	duration  *prometheus.Desc
	transport *prometheus.Desc
}

// NewCollector creates a collector for msr. Metric names are prefixed with namespace.
func NewCollector(namespace string, msr Measure) *Collector {
	return &Collector{
		msr: msr,
		events: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "statement", "events_total"),
			"Number of events evaluated by a statement.",
			[]string{"statement"}, nil,
		),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "statement", "dropped_total"),
			"Number of events a statement could not evaluate.",
			[]string{"statement"}, nil,
		),
		duration: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "statement", "processing_seconds_avg"),
			"Average time spent evaluating one event.",
			[]string{"statement"}, nil,
		),
		transport: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "statement", "transport_seconds_avg"),
			"Average time an event waited on an input stream.",
			[]string{"statement", "input"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.dropped
	ch <- c.duration
	ch <- c.transport
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	all := c.msr.AllMetrics()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mt := all[name]
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(mt.Events()), name)
		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(mt.Dropped()), name)
		ch <- prometheus.MustNewConstMetric(c.duration, prometheus.GaugeValue, mt.AVGDuration().Seconds(), name)
		for input, avg := range mt.AVGTransportDuration() {
			ch <- prometheus.MustNewConstMetric(c.transport, prometheus.GaugeValue, avg.Seconds(), name, input)
		}
	}
}

var _ prometheus.Collector = (*Collector)(nil)
