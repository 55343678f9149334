package render

import (
	"fmt"
	"sort"

	"github.com/nara-t/nara-sim/sim"
)

// RenderSummary draws the aggregate stats of a finished run. The distinct-items
// figure is the computed count of unique chosen item ids.
func RenderSummary(s Session, sum sim.AggregateSummary) string {
	body := []string{
		fmt.Sprintf("%s: %d/%d", s.Label(LabelSuccess), sum.SuccessCount, sum.Dispatched),
		fmt.Sprintf("%s: %dms", s.Label(LabelAvgLatency), sum.RoundedAverageLatencyMs()),
		fmt.Sprintf("%s: %d", s.Label(LabelDistinctItems), sum.DistinctItemCount),
	}
	if len(sum.ActivityCounts) > 0 {
		body = append(body, mutedStyle.Render(s.Label(LabelActivities)+":"))
		activities := make([]string, 0, len(sum.ActivityCounts))
		for a := range sum.ActivityCounts {
			activities = append(activities, a)
		}
		sort.Strings(activities)
		for _, a := range activities {
			body = append(body, fmt.Sprintf("  %s: %d", a, sum.ActivityCounts[a]))
		}
	}
	return frame(s, panelStyle, s.Label(LabelSummaryTitle), body)
}
