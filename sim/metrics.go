// Tracks run-wide aggregates of a fleet simulation such as success count,
// latency and distinct recommended items.

package sim

import "math"

// AggregateSummary is recomputed from scratch on every run.
type AggregateSummary struct {
	Dispatched        int            `json:"dispatched"`
	SuccessCount      int            `json:"success_count"`
	ErrorCount        int            `json:"error_count"`
	TotalLatencyMs    float64        `json:"total_latency_ms"`
	AverageLatencyMs  float64        `json:"average_latency_ms"` // over successful calls only; 0 when none
	DistinctItemCount int            `json:"distinct_item_count"`
	ActivityCounts    map[string]int `json:"activity_counts"` // successful calls per activity
}

// RoundedAverageLatencyMs is the average latency as displayed.
func (s AggregateSummary) RoundedAverageLatencyMs() int64 {
	return int64(math.Round(s.AverageLatencyMs))
}

// Aggregator folds request records into an AggregateSummary.
// Not goroutine-safe; the sequencer feeds it from a single goroutine.
type Aggregator struct {
	dispatched   int
	successCount int
	errorCount   int
	latencySum   float64
	items        map[int64]struct{}
	activities   map[string]int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		items:      make(map[int64]struct{}),
		activities: make(map[string]int),
	}
}

// Add folds one record. Failed records only count towards ErrorCount.
func (a *Aggregator) Add(rec *RequestRecord) {
	a.dispatched++
	if !rec.OK() {
		a.errorCount++
		return
	}
	a.successCount++
	a.latencySum += rec.LatencyMs
	a.items[rec.ChosenItemID] = struct{}{}
	a.activities[rec.Persona.Activity]++
}

// Summary computes the aggregate. Safe to call on an empty aggregator.
func (a *Aggregator) Summary() AggregateSummary {
	summary := AggregateSummary{
		Dispatched:        a.dispatched,
		SuccessCount:      a.successCount,
		ErrorCount:        a.errorCount,
		TotalLatencyMs:    a.latencySum,
		DistinctItemCount: len(a.items),
		ActivityCounts:    make(map[string]int, len(a.activities)),
	}
	if a.successCount > 0 {
		summary.AverageLatencyMs = a.latencySum / float64(a.successCount)
	}
	for k, v := range a.activities {
		summary.ActivityCounts[k] = v
	}
	return summary
}
