package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nara-t/nara-sim/sim"
	"github.com/nara-t/nara-sim/sim/profile"
	"github.com/nara-t/nara-sim/sim/server"
)

var (
	serveAddr     string // Listen address
	serveProfiles string // Optional persona profile mapping for /api/personas
)

const shutdownTimeout = 5 * time.Second

// serveOptions configures the demo server.
type serveOptions struct {
	Addr         string
	ProfilesPath string
	Endpoint     string
	APIKey       string
	Seed         int64
	FleetSize    int
	SampleSize   int
	NumResults   int
	Delay        time.Duration
	Timeout      time.Duration
	Artists      sim.ArtistTable
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo page API: personas, background simulations and metrics",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging("info")
		cfg := prepareRun(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := serveOptions{
			Addr:         serveAddr,
			ProfilesPath: serveProfiles,
			Endpoint:     envFallback(endpoint, envEndpoint),
			APIKey:       envFallback(apiKey, envAPIKey),
			Seed:         seed,
			FleetSize:    fleetSize,
			SampleSize:   sampleSize,
			NumResults:   numResults,
			Delay:        delay,
			Timeout:      timeout,
			Artists:      cfg.artistTable(),
		}
		if err := runServe(ctx, opts); err != nil {
			logrus.Fatalf("Server failed: %v", err)
		}
	},
}

// newDemoServer builds the server and its sequencer from opts.
func newDemoServer(opts serveOptions, reg *prometheus.Registry) (*server.Server, error) {
	var personas []profile.FleetEntry
	if opts.ProfilesPath != "" {
		profiles, err := profile.LoadProfiles(opts.ProfilesPath)
		if err != nil {
			return nil, err
		}
		personas = profile.Prepare(profiles)
		logrus.Infof("Loaded %d personas from %s", len(personas), opts.ProfilesPath)
	}

	masterSeed := opts.Seed
	if masterSeed == 0 {
		masterSeed = time.Now().UnixNano()
		logrus.Infof("No seed given, using %d", masterSeed)
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(masterSeed))
	fleet := sim.BuildFleet(rng.ForSubsystem(sim.SubsystemFleet), opts.FleetSize)

	var httpClient sim.HTTPDoer
	if opts.Timeout > 0 {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	seq := sim.NewSequencer(fleet, sim.SequencerConfig{
		SampleSize: opts.SampleSize,
		NumResults: opts.NumResults,
		Delay:      opts.Delay,
		Artists:    opts.Artists,
	}, rng, httpClient)

	return server.New(server.Options{
		Sequencer:       seq,
		Personas:        personas,
		Registry:        reg,
		DefaultEndpoint: opts.Endpoint,
		DefaultAPIKey:   opts.APIKey,
	}), nil
}

// runServe listens until ctx is cancelled, then shuts down and aborts any active run.
// With a profiles file, edits to it are picked up without a restart.
func runServe(ctx context.Context, opts serveOptions) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv, err := newDemoServer(opts, reg)
	if err != nil {
		return err
	}
	defer srv.Close()

	var watcher *profile.Watcher
	if opts.ProfilesPath != "" {
		if watcher, err = profile.NewWatcher(opts.ProfilesPath, srv.SetPersonas); err != nil {
			return err
		}
	}

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("Listening on %s", opts.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	return g.Wait()
}

func init() {
	addSimulationFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveProfiles, "profiles", "", "Persona profile mapping (JSON) served at /api/personas")

	rootCmd.AddCommand(serveCmd)
}
