package sim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRecommender is an httptest server standing in for the recommendation
// service. respond decides the reply for the n-th request (0-based).
type fakeRecommender struct {
	*httptest.Server
	requests atomic.Int64

	mu      sync.Mutex
	bodies  []RecommendRequest
	headers []http.Header
	paths   []string
}

func newFakeRecommender(t *testing.T, respond func(n int, w http.ResponseWriter, req *RecommendRequest)) *fakeRecommender {
	t.Helper()
	f := &fakeRecommender{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(f.requests.Add(1) - 1)
		var body RecommendRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		f.headers = append(f.headers, r.Header.Clone())
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()
		respond(n, w, &body)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeRecommender) Bodies() []RecommendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecommendRequest(nil), f.bodies...)
}

func (f *fakeRecommender) Headers() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.headers...)
}

func (f *fakeRecommender) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// writeItems replies 200 with the given items and latency_ms.
func writeItems(w http.ResponseWriter, latencyMs float64, items ...Item) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"items":      items,
		"latency_ms": latencyMs,
	})
}

// newTestSequencer returns a sequencer over a 50-persona fleet with no delay.
func newTestSequencer(seed int64, sinks ...RecordSink) *Sequencer {
	rng := NewPartitionedRNG(NewSimulationKey(seed))
	fleet := BuildFleet(rng.ForSubsystem(SubsystemFleet), DefaultFleetSize)
	cfg := DefaultSequencerConfig()
	cfg.Delay = 0
	return NewSequencer(fleet, cfg, rng, nil, sinks...)
}

// collectSink records every observed record.
type collectSink struct {
	mu      sync.Mutex
	records []*RequestRecord
}

func (c *collectSink) Observe(rec *RequestRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

func (c *collectSink) Records() []*RequestRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*RequestRecord(nil), c.records...)
}

// noSleep records requested delays without waiting.
func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}
