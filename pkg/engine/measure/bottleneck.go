package measure

import (
	"sort"
	"time"
)

// Flow is the cost of one statement per event.
type Flow struct {
	Statement string
	// Processing is the average time spent evaluating an event.
	Processing time.Duration
	// Waiting is the longest average wait among the statement inputs.
	Waiting time.Duration
	// Capacity is how much faster the statement is than the slowest one.
	Capacity time.Duration
}

// Bottlenecks ranks the statements of msr from the slowest to the fastest. Statements with the
// same cost are ordered by name.
func Bottlenecks(msr Measure) []Flow {
	all := msr.AllMetrics()
	flows := make([]Flow, 0, len(all))
	var slowest time.Duration
	for name, mt := range all {
		f := Flow{Statement: name, Processing: mt.AVGDuration()}
		for _, avg := range mt.AVGTransportDuration() {
			if avg > f.Waiting {
				f.Waiting = avg
			}
		}
		if cost := f.Processing + f.Waiting; cost > slowest {
			slowest = cost
		}
		flows = append(flows, f)
	}
	for i := range flows {
		flows[i].Capacity = slowest - flows[i].Processing - flows[i].Waiting
	}

	sort.Slice(flows, func(i, j int) bool {
		if flows[i].Capacity != flows[j].Capacity {
			return flows[i].Capacity < flows[j].Capacity
		}

		return flows[i].Statement < flows[j].Statement
	})

	return flows
}
