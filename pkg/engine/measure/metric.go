package measure

import (
	"sync"
	"time"
)

type TransportInfo struct {
	Elapsed time.Duration
	Total   int64
}

type DefaultMetric struct {
	mu            sync.Mutex
	allTransports map[string]*TransportInfo
	endDuration   time.Duration
	elapsed       time.Duration
	total         int64
	dropped       int64
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.elapsed += elapsed
}

func (mt *DefaultMetric) AddDropped() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.dropped++
}

func (mt *DefaultMetric) Events() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.total
}

func (mt *DefaultMetric) Dropped() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.dropped
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.endDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

func (mt *DefaultMetric) AddTransportDuration(inputStream string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.allTransports[inputStream] == nil {
		mt.allTransports[inputStream] = &TransportInfo{}
	}
	info := mt.allTransports[inputStream]
	info.Elapsed += elapsed
	info.Total++
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.elapsed) / float64(mt.total)))
}

// AVGTransportDuration returns the average wait per input stream. Streams that never delivered
// are left out.
func (mt *DefaultMetric) AVGTransportDuration() map[string]time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	out := make(map[string]time.Duration, len(mt.allTransports))
	for name, info := range mt.allTransports {
		if info.Total == 0 {
			continue
		}
		out[name] = round(time.Duration(float64(info.Elapsed) / float64(info.Total)))
	}

	return out
}

// AllTransports returns a snapshot of the raw transport totals.
func (mt *DefaultMetric) AllTransports() map[string]TransportInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	out := make(map[string]TransportInfo, len(mt.allTransports))
	for name, info := range mt.allTransports {
		out[name] = *info
	}

	return out
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Hour)
	case d > time.Minute:
		d = d.Round(time.Minute)
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}

var _ Metric = (*DefaultMetric)(nil)
