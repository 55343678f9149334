package trace

import "github.com/nara-t/nara-sim/sim"

// Summarize recomputes the run aggregate from a loaded trace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(t *Trace) sim.AggregateSummary {
	agg := sim.NewAggregator()
	if t == nil {
		return agg.Summary()
	}
	for _, r := range t.Rows {
		agg.Add(r.Record())
	}
	return agg.Summary()
}
