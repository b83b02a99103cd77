package measure

import "time"

// Measure holds one Metric per statement of a running engine.
type Measure interface {
	AddMetric(name string) Metric
	Metric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric records what a single statement did while the engine was running.
type Metric interface {
	// AddDuration records the time spent evaluating one event.
	AddDuration(elapsed time.Duration)
	// AddTransportDuration records how long an event from the given input stream waited.
	AddTransportDuration(inputStream string, elapsed time.Duration)
	AddDropped()
	Events() int64
	Dropped() int64
	AVGDuration() time.Duration
	AVGTransportDuration() map[string]time.Duration
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
	AllTransports() map[string]TransportInfo
}
