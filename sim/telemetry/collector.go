// Package telemetry exports fleet simulation activity as Prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nara-t/nara-sim/sim"
)

// Collector turns request records and run outcomes into metrics.
// It implements sim.RecordSink.
type Collector struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	reward        prometheus.Histogram
	runsTotal     *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

// NewCollector registers the simulation metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nara_sim_requests_total",
				Help: "Total number of recommend requests dispatched",
			},
			[]string{"status", "activity"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nara_sim_request_latency_ms",
				Help:    "Recommend latency in milliseconds for successful requests",
				Buckets: prometheus.ExponentialBuckets(5, 2, 10),
			},
			[]string{"activity"},
		),
		reward: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nara_sim_reward",
				Help:    "Synthesized reward of successful requests",
				Buckets: prometheus.LinearBuckets(0.6, 0.05, 8),
			},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nara_sim_runs_total",
				Help: "Total number of finished simulation runs",
			},
			[]string{"state"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nara_sim_runs_active",
				Help: "Number of simulation runs in progress",
			},
		),
	}
}

// Observe records one request.
func (c *Collector) Observe(rec *sim.RequestRecord) {
	activity := rec.Persona.Activity
	c.requestsTotal.WithLabelValues(rec.Status, activity).Inc()
	if !rec.OK() {
		return
	}
	c.latency.WithLabelValues(activity).Observe(rec.LatencyMs)
	c.reward.Observe(rec.Reward)
}

// RunStarted marks a run as active.
func (c *Collector) RunStarted() {
	c.inFlight.Inc()
}

// RunFinished records the terminal state of a run started with RunStarted.
func (c *Collector) RunFinished(state sim.RunState) {
	c.inFlight.Dec()
	c.runsTotal.WithLabelValues(string(state)).Inc()
}
