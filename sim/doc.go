// Package sim provides the fleet simulation engine for NARA-T demos.
//
// # Reading Guide
//
// Start with these files:
//   - persona.go, fleet.go: the synthetic persona pool and per-run sampling
//   - client.go: one recommend request and the classification of its outcome
//   - sequencer.go: the run state machine (idle → running → completed | aborted)
//   - metrics.go: the aggregate summary folded from request records
//
// # Architecture
//
// The sim package owns the request/record types and the sequencer; everything
// that consumes records lives in sub-packages and plugs in as a RecordSink:
//   - sim/render/: terminal log panel, summary and result cards (en/ar)
//   - sim/trace/: streaming CSV trace of a run with a YAML header
//   - sim/telemetry/: Prometheus counters and histograms
//   - sim/profile/: persona profile preparation for the demo page
//   - sim/server/: HTTP surface for triggering and watching runs
//
// Randomness flows through PartitionedRNG so a seed reproduces the fleet, the
// sampled subset, the session IDs and the synthesized rewards.
package sim
