package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultDelay separates consecutive dispatches.
const DefaultDelay = 200 * time.Millisecond

var (
	// ErrEmptyEndpoint is returned synchronously when the endpoint is blank.
	// No request is issued and the sequencer stays in its current state.
	ErrEmptyEndpoint = errors.New("endpoint is required")

	// ErrRunInProgress is returned when Run is called while another run is active.
	ErrRunInProgress = errors.New("a simulation run is already in progress")

	// ErrRunAborted wraps the context error of a run cancelled mid-flight.
	ErrRunAborted = errors.New("simulation run aborted")
)

// RunState is the sequencer lifecycle: idle → running → (completed | aborted).
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunAborted   RunState = "aborted"
)

// RecordSink receives every request record of a run, in dispatch order.
type RecordSink interface {
	Observe(rec *RequestRecord)
}

// RecordSinkFunc adapts a function to RecordSink.
type RecordSinkFunc func(rec *RequestRecord)

// Observe calls f(rec).
func (f RecordSinkFunc) Observe(rec *RequestRecord) { f(rec) }

// SequencerConfig holds the knobs of a fleet simulation run.
type SequencerConfig struct {
	SampleSize int
	NumResults int
	Delay      time.Duration
	Artists    ArtistTable
}

// DefaultSequencerConfig returns the stock demo settings.
func DefaultSequencerConfig() SequencerConfig {
	return SequencerConfig{
		SampleSize: DefaultSampleSize,
		NumResults: DefaultNumResults,
		Delay:      DefaultDelay,
		Artists:    DefaultArtists(),
	}
}

// RunResult is what a run leaves behind once it stops.
type RunResult struct {
	State    RunState
	Endpoint string
	Personas []Persona // sampled subset in dispatch order
	Summary  AggregateSummary
	Cards    []Item // items of the last successful response
	Started  time.Time
	Duration time.Duration
}

// Sequencer issues one recommend request per sampled persona, strictly one at
// a time. At most one run is active per Sequencer.
type Sequencer struct {
	fleet      []Persona
	cfg        SequencerConfig
	httpClient HTTPDoer
	sinks      []RecordSink

	mu    sync.Mutex
	state RunState
	rng   *PartitionedRNG // guarded by the running state, not mu

	// sleep waits between dispatches; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSequencer creates an idle sequencer over fleet. sinks observe every run.
func NewSequencer(fleet []Persona, cfg SequencerConfig, rng *PartitionedRNG, httpClient HTTPDoer, sinks ...RecordSink) *Sequencer {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = DefaultNumResults
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.Artists == nil {
		cfg.Artists = DefaultArtists()
	}
	return &Sequencer{
		fleet:      fleet,
		cfg:        cfg,
		httpClient: httpClient,
		sinks:      sinks,
		state:      RunIdle,
		rng:        rng,
		sleep:      sleepContext,
	}
}

// State returns the current lifecycle state.
func (s *Sequencer) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fleet returns the persona pool runs sample from.
func (s *Sequencer) Fleet() []Persona {
	return s.fleet
}

// Config returns the settings in effect after defaults were applied.
func (s *Sequencer) Config() SequencerConfig {
	return s.cfg
}

// Artists returns the artist table used to label chosen items.
func (s *Sequencer) Artists() ArtistTable {
	return s.cfg.Artists
}

func (s *Sequencer) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == RunRunning {
		return false
	}
	s.state = RunRunning
	return true
}

func (s *Sequencer) finish(state RunState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run executes one fleet simulation against endpoint.
//
// Per-request failures never stop the run; they become error records. The run
// stops early only when ctx is cancelled, in which case the partial result is
// returned together with an error wrapping ErrRunAborted.
func (s *Sequencer) Run(ctx context.Context, endpoint, apiKey string, extra ...RecordSink) (*RunResult, error) {
	base := NormalizeEndpoint(endpoint)
	if base == "" {
		return nil, ErrEmptyEndpoint
	}
	if !s.begin() {
		return nil, ErrRunInProgress
	}

	result := &RunResult{
		State:    RunRunning,
		Endpoint: base,
		Started:  time.Now(),
	}
	sinks := append(append([]RecordSink(nil), s.sinks...), extra...)

	result.Personas = SampleFleet(s.fleet, s.cfg.SampleSize, s.rng.ForSubsystem(SubsystemSampling))
	client := NewRecommendClient(base, apiKey, s.httpClient)
	agg := NewAggregator()

	logrus.Infof("Starting fleet simulation: %d personas against %s", len(result.Personas), client.URL())

	var runErr error
	for i, p := range result.Personas {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		req := NewRecommendRequest(p, s.newSessionID(), s.cfg.NumResults)
		rec, err := client.Send(ctx, req)
		if err != nil {
			runErr = err
			break
		}
		rec.Index = i
		rec.Persona = p
		if rec.OK() {
			rec.ChosenArtist = s.cfg.Artists.Lookup(rec.ChosenItemID)
			rec.Reward = SynthesizeReward(s.rng.ForSubsystem(SubsystemReward))
			result.Cards = rec.Items
		} else {
			logrus.Debugf("persona %s failed: %s", p.ID, rec.ErrorMessage)
		}
		agg.Add(rec)
		for _, sink := range sinks {
			sink.Observe(rec)
		}

		if i < len(result.Personas)-1 && s.cfg.Delay > 0 {
			if err := s.sleep(ctx, s.cfg.Delay); err != nil {
				runErr = err
				break
			}
		}
	}

	result.Summary = agg.Summary()
	result.Duration = time.Since(result.Started)
	if runErr != nil {
		result.State = RunAborted
		s.finish(RunAborted)
		logrus.Warnf("Fleet simulation aborted after %d of %d requests", result.Summary.Dispatched, len(result.Personas))
		return result, fmt.Errorf("%w: %v", ErrRunAborted, runErr)
	}
	result.State = RunCompleted
	s.finish(RunCompleted)
	logrus.Infof("Fleet simulation complete: %d/%d succeeded", result.Summary.SuccessCount, result.Summary.Dispatched)
	return result, nil
}

// newSessionID derives a v4 UUID from the session RNG so seeded runs are reproducible.
func (s *Sequencer) newSessionID() string {
	id, err := uuid.NewRandomFromReader(s.rng.ForSubsystem(SubsystemSession))
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
