package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nara-t/nara-sim/sim"
	"github.com/nara-t/nara-sim/sim/render"
	"github.com/nara-t/nara-sim/sim/trace"
)

var (
	// Simulation flags, shared by simulate and serve
	endpoint   string        // Recommendation service base URL
	apiKey     string        // Bearer token sent with every request
	seed       int64         // Master seed; 0 derives one from the clock
	fleetSize  int           // Personas in the synthetic fleet
	sampleSize int           // Personas sampled per run
	numResults int           // num_results sent with each request
	delay      time.Duration // Pause between consecutive requests
	timeout    time.Duration // Per-request HTTP timeout; 0 disables it

	// simulate-only flags
	lang            string // Display language (en, ar)
	traceHeaderPath string // Trace header YAML output
	traceDataPath   string // Trace data CSV output
	quiet           bool   // Render the log panel once at the end instead of streaming
)

// simulateOptions is everything runSimulate needs; flags and config are resolved before.
type simulateOptions struct {
	Endpoint   string
	APIKey     string
	Lang       string
	Seed       int64
	FleetSize  int
	SampleSize int
	NumResults int
	Delay      time.Duration
	Timeout    time.Duration
	Artists    sim.ArtistTable

	TraceHeader string
	TraceData   string
	Stream      bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a sampled persona fleet against a recommendation endpoint",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging("warn")
		cfg := prepareRun(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := simulateOptions{
			Endpoint:    envFallback(endpoint, envEndpoint),
			APIKey:      envFallback(apiKey, envAPIKey),
			Lang:        lang,
			Seed:        seed,
			FleetSize:   fleetSize,
			SampleSize:  sampleSize,
			NumResults:  numResults,
			Delay:       delay,
			Timeout:     timeout,
			Artists:     cfg.artistTable(),
			TraceHeader: traceHeaderPath,
			TraceData:   traceDataPath,
			Stream:      !quiet,
		}
		result, err := runSimulate(ctx, opts, cmd.OutOrStdout())
		switch {
		case errors.Is(err, sim.ErrRunAborted):
			logrus.Warnf("Simulation aborted after %d requests", result.Summary.Dispatched)
			os.Exit(130)
		case err != nil:
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// runSimulate executes one fleet simulation and renders the panels to out.
// On abort the partial result is rendered and returned with the error.
func runSimulate(ctx context.Context, opts simulateOptions, out io.Writer) (*sim.RunResult, error) {
	if sim.NormalizeEndpoint(opts.Endpoint) == "" {
		return nil, sim.ErrEmptyEndpoint
	}

	masterSeed := opts.Seed
	if masterSeed == 0 {
		masterSeed = time.Now().UnixNano()
		logrus.Infof("No seed given, using %d", masterSeed)
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(masterSeed))
	fleet := sim.BuildFleet(rng.ForSubsystem(sim.SubsystemFleet), opts.FleetSize)

	cfg := sim.SequencerConfig{
		SampleSize: opts.SampleSize,
		NumResults: opts.NumResults,
		Delay:      opts.Delay,
		Artists:    opts.Artists,
	}
	var httpClient sim.HTTPDoer
	if opts.Timeout > 0 {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	session := render.NewSession(opts.Lang)
	var stream io.Writer
	if opts.Stream {
		stream = out
	}
	panel := render.NewLogPanel(stream)
	sinks := []sim.RecordSink{panel}

	seq := sim.NewSequencer(fleet, cfg, rng, httpClient)

	var tw *trace.Writer
	if opts.TraceData != "" {
		headerPath := opts.TraceHeader
		if headerPath == "" {
			headerPath = strings.TrimSuffix(opts.TraceData, filepath.Ext(opts.TraceData)) + ".yaml"
		}
		used := seq.Config()
		var err error
		tw, err = trace.NewWriter(headerPath, opts.TraceData, trace.Header{
			Endpoint:   sim.NormalizeEndpoint(opts.Endpoint),
			Seed:       masterSeed,
			FleetSize:  len(fleet),
			SampleSize: min(used.SampleSize, len(fleet)),
			DelayMs:    used.Delay.Milliseconds(),
			NumResults: used.NumResults,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, tw)
	}

	result, runErr := seq.Run(ctx, opts.Endpoint, opts.APIKey, sinks...)

	if tw != nil {
		if err := tw.Close(); err != nil && runErr == nil {
			runErr = err
		}
		logrus.Infof("Wrote %d trace rows to %s", tw.Rows(), opts.TraceData)
	}
	if result == nil {
		return nil, runErr
	}

	if !opts.Stream {
		_, _ = fmt.Fprintln(out, panel.Render(session))
	}
	_, _ = fmt.Fprintln(out, render.RenderSummary(session, result.Summary))
	_, _ = fmt.Fprintln(out, render.RenderCards(session, result.Cards, seq.Artists()))
	return result, runErr
}

// addSimulationFlags binds the flags shared by simulate and serve.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Recommendation service base URL (env "+envEndpoint+")")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key sent as a Bearer token (env "+envAPIKey+")")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Master seed for fleet, sampling and rewards (0 = from clock)")
	cmd.Flags().IntVar(&fleetSize, "fleet-size", sim.DefaultFleetSize, "Number of personas in the fleet")
	cmd.Flags().IntVar(&sampleSize, "sample-size", sim.DefaultSampleSize, "Number of personas sampled per run")
	cmd.Flags().IntVar(&numResults, "num-results", sim.DefaultNumResults, "num_results requested per call")
	cmd.Flags().DurationVar(&delay, "delay", sim.DefaultDelay, "Delay between consecutive requests")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-request HTTP timeout (0 = none)")
}

func init() {
	addSimulationFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&lang, "lang", string(render.LangEnglish), "Display language (en, ar)")
	simulateCmd.Flags().StringVar(&traceDataPath, "trace-data", "", "Write a CSV trace of every request to this file")
	simulateCmd.Flags().StringVar(&traceHeaderPath, "trace-header", "", "Trace header YAML path (default: trace data path with .yaml)")
	simulateCmd.Flags().BoolVar(&quiet, "quiet", false, "Do not stream log lines; render the panel once at the end")

	rootCmd.AddCommand(simulateCmd)
}
