package sim

import "fmt"

// FormatLogLine renders a record as one pseudo-CSV log line:
//
//	OK,<user_id>,<activity>,<hour>,<device>,<item_id>,<artist>,<reward>,<latency>ms
//	ERR,<user_id>,<message>
func FormatLogLine(rec *RequestRecord) string {
	if !rec.OK() {
		return fmt.Sprintf("ERR,%s,%s", rec.Persona.ID, rec.ErrorMessage)
	}
	return fmt.Sprintf("OK,%s,%s,%d,%s,%d,%s,%.2f,%.0fms",
		rec.Persona.ID,
		rec.Persona.Activity,
		rec.Persona.HourOfDay,
		rec.Persona.Device,
		rec.ChosenItemID,
		rec.ChosenArtist,
		rec.Reward,
		rec.LatencyMs,
	)
}
