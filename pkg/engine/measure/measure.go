package measure

import (
	"sync"
)

type DefaultMeasure struct {
	mu         sync.RWMutex
	statements map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		statements: make(map[string]Metric),
	}
}

// AddMetric registers name, replacing any metric already recorded under it.
func (m *DefaultMeasure) AddMetric(name string) Metric {
	mt := &DefaultMetric{
		allTransports: make(map[string]*TransportInfo),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements[name] = mt

	return mt
}

// Metric returns the metric of name, nil when it was never added.
func (m *DefaultMeasure) Metric(name string) Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.statements[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Metric, len(m.statements))
	for name, mt := range m.statements {
		out[name] = mt
	}

	return out
}

var _ Measure = (*DefaultMeasure)(nil)
