// Package server exposes the demo page logic over HTTP: persona listing,
// background fleet simulation runs and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nara-t/nara-sim/sim"
	"github.com/nara-t/nara-sim/sim/profile"
	"github.com/nara-t/nara-sim/sim/render"
	"github.com/nara-t/nara-sim/sim/telemetry"
)

// Options configures a Server.
type Options struct {
	Sequencer *sim.Sequencer
	Personas  []profile.FleetEntry // optional prepared persona list

	// Registry receives the simulation metrics and backs /metrics.
	// A fresh registry is used when nil.
	Registry *prometheus.Registry

	// Fallbacks for requests that leave these fields empty.
	DefaultEndpoint string
	DefaultAPIKey   string
}

// Server runs at most one simulation at a time on behalf of HTTP clients.
type Server struct {
	seq       *sim.Sequencer
	personas  []profile.FleetEntry
	registry  *prometheus.Registry
	collector *telemetry.Collector
	endpoint  string
	apiKey    string

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	current *run
}

// SetPersonas replaces the list served at /api/personas.
func (s *Server) SetPersonas(entries []profile.FleetEntry) {
	if entries == nil {
		entries = []profile.FleetEntry{}
	}
	s.mu.Lock()
	s.personas = entries
	s.mu.Unlock()
}

// run is one simulation started through the API.
type run struct {
	id       string
	session  render.Session
	endpoint string
	panel    *render.LogPanel
	cancel   context.CancelFunc
	done     chan struct{}

	// Set once done is closed.
	result        *sim.RunResult
	err           error
	abortedByUser bool

	subMu  sync.Mutex
	subs   map[chan streamMessage]struct{}
	closed bool
}

// settle stores the outcome of the run. An abort request that lost the race
// with the final request does not mark a completed run as aborted.
// Callers hold Server.mu.
func (r *run) settle(result *sim.RunResult, err error) {
	r.result, r.err = result, err
	if result != nil && result.State != sim.RunAborted {
		r.abortedByUser = false
	}
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// New creates a Server. Call Close to abort any active run on shutdown.
func New(opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	personas := opts.Personas
	if personas == nil {
		personas = []profile.FleetEntry{}
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Server{
		seq:       opts.Sequencer,
		personas:  personas,
		registry:  reg,
		collector: telemetry.NewCollector(reg),
		endpoint:  opts.DefaultEndpoint,
		apiKey:    opts.DefaultAPIKey,
		baseCtx:   ctx,
		stop:      stop,
	}
}

// Handler wires the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Get("/personas", s.handleListPersonas)
		api.Get("/fleet", s.handleFleet)
		api.Post("/simulations", s.handleStartSimulation)
		api.Get("/simulations/current", s.handleCurrentSimulation)
		api.Delete("/simulations/current", s.handleAbortSimulation)
		api.Get("/simulations/current/stream", s.handleStreamSimulation)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

// Close aborts the active run, if any, and waits for it to stop.
func (s *Server) Close() {
	s.stop()
	s.wg.Wait()
}

type startRequest struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
	Lang     string `json:"lang"`
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	personas := s.personas
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, personas)
}

func (s *Server) handleFleet(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.seq.Fleet())
}

func (s *Server) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	endpoint := sim.NormalizeEndpoint(req.Endpoint)
	if endpoint == "" {
		endpoint = sim.NormalizeEndpoint(s.endpoint)
	}
	if endpoint == "" {
		respondError(w, http.StatusBadRequest, sim.ErrEmptyEndpoint.Error())
		return
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.apiKey
	}

	rn, err := s.start(endpoint, apiKey, render.NewSession(req.Lang))
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	w.Header().Set("Location", "/api/simulations/current")
	respondJSON(w, http.StatusAccepted, s.view(rn))
}

func (s *Server) handleCurrentSimulation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rn := s.current
	s.mu.Unlock()
	if rn == nil {
		respondError(w, http.StatusNotFound, "no simulation has been started")
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "text/plain") || r.URL.Query().Get("format") == "text" {
		respondText(w, s.renderText(rn, sessionFor(r, rn.session)))
		return
	}
	respondJSON(w, http.StatusOK, s.view(rn))
}

func (s *Server) handleAbortSimulation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rn := s.current
	if rn == nil || rn.finished() {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, "no simulation is running")
		return
	}
	if s.seq.State() == sim.RunRunning {
		rn.abortedByUser = true
	}
	rn.cancel()
	s.mu.Unlock()

	select {
	case <-rn.done:
	case <-r.Context().Done():
		return
	}
	logrus.WithField("run", rn.id).Info("Simulation aborted by user")
	respondJSON(w, http.StatusOK, s.view(rn))
}

// start launches a run in the background unless one is already active.
func (s *Server) start(endpoint, apiKey string, session render.Session) (*run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && !s.current.finished() {
		return nil, sim.ErrRunInProgress
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	rn := &run{
		id:       uuid.NewString(),
		session:  session,
		endpoint: endpoint,
		panel:    render.NewLogPanel(nil),
		cancel:   cancel,
		done:     make(chan struct{}),
		subs:     make(map[chan streamMessage]struct{}),
	}
	s.current = rn
	s.collector.RunStarted()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		result, err := s.seq.Run(ctx, endpoint, apiKey, rn, s.collector)

		s.mu.Lock()
		rn.settle(result, err)
		s.mu.Unlock()

		state := sim.RunAborted
		if result != nil {
			state = result.State
		}
		s.collector.RunFinished(state)
		if err != nil && !errors.Is(err, sim.ErrRunAborted) {
			logrus.Errorf("Simulation %s failed: %v", rn.id, err)
		}
		close(rn.done)
		rn.closeSubscribers()
	}()

	logrus.WithFields(logrus.Fields{"run": rn.id, "endpoint": endpoint}).Info("Simulation started")
	return rn, nil
}

// runView is the JSON shape of a run.
type runView struct {
	ID            string                `json:"id"`
	State         sim.RunState          `json:"state"`
	Endpoint      string                `json:"endpoint"`
	Lang          render.Lang           `json:"lang"`
	RTL           bool                  `json:"rtl"`
	Log           []string              `json:"log"`
	Summary       *sim.AggregateSummary `json:"summary,omitempty"`
	Cards         []cardView            `json:"cards,omitempty"`
	AbortedByUser bool                  `json:"aborted_by_user,omitempty"`
	Error         string                `json:"error,omitempty"`
	DurationMs    int64                 `json:"duration_ms,omitempty"`
}

type cardView struct {
	Rank   int     `json:"rank"`
	ItemID int64   `json:"item_id"`
	Artist string  `json:"artist"`
	Score  float64 `json:"score"`
}

func (s *Server) view(rn *run) runView {
	v := runView{
		ID:       rn.id,
		State:    sim.RunRunning,
		Endpoint: rn.endpoint,
		Lang:     rn.session.Lang,
		RTL:      rn.session.RTL(),
		Log:      rn.panel.Lines(),
	}
	if !rn.finished() {
		return v
	}

	s.mu.Lock()
	result, err, aborted := rn.result, rn.err, rn.abortedByUser
	s.mu.Unlock()

	v.AbortedByUser = aborted
	if err != nil {
		v.Error = err.Error()
	}
	if result == nil {
		v.State = sim.RunAborted
		return v
	}
	v.State = result.State
	summary := result.Summary
	v.Summary = &summary
	v.DurationMs = result.Duration.Milliseconds()
	artists := s.seq.Artists()
	for _, it := range result.Cards {
		v.Cards = append(v.Cards, cardView{Rank: it.Rank, ItemID: it.ItemID, Artist: artists.Lookup(it.ItemID), Score: it.Score})
	}
	return v
}

func (s *Server) renderText(rn *run, session render.Session) string {
	parts := []string{rn.panel.Render(session)}
	if rn.finished() {
		s.mu.Lock()
		result := rn.result
		s.mu.Unlock()
		if result != nil {
			parts = append(parts,
				render.RenderSummary(session, result.Summary),
				render.RenderCards(session, result.Cards, s.seq.Artists()),
			)
		}
	}
	return strings.Join(parts, "\n") + "\n"
}

// sessionFor lets a viewer override the run's language with ?lang=.
func sessionFor(r *http.Request, fallback render.Session) render.Session {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return render.NewSession(lang)
	}
	return fallback
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
		}).Debug("http request")
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Warnf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
