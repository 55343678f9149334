package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nara-t/nara-sim/sim"
)

// Environment variables consulted when the matching flag is not given.
const (
	envEndpoint = "NARA_ENDPOINT"
	envAPIKey   = "NARA_API_KEY"
)

// SimulationDefaults is the `simulation` section of the defaults file.
// Zero values leave the flag defaults in place, except Delay, where an
// explicit 0 disables the pause.
type SimulationDefaults struct {
	FleetSize  int            `yaml:"fleet_size"`
	SampleSize int            `yaml:"sample_size"`
	NumResults int            `yaml:"num_results"`
	Delay      *time.Duration `yaml:"delay"`
	Seed       int64          `yaml:"seed"`
	Timeout    time.Duration  `yaml:"timeout"`
}

// Config represents the full defaults file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Simulation SimulationDefaults `yaml:"simulation"`
	Artists    map[int64]string   `yaml:"artists"`
}

// loadConfig parses a defaults file with strict field checking, so typos are errors.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if d := cfg.Simulation.Delay; d != nil && *d < 0 {
		return nil, fmt.Errorf("parsing config %s: delay must be >= 0, got %s", path, *d)
	}
	return &cfg, nil
}

// artistTable merges configured artist names over the built-in table.
func (c *Config) artistTable() sim.ArtistTable {
	table := sim.DefaultArtists()
	if c == nil {
		return table
	}
	for id, name := range c.Artists {
		table[id] = name
	}
	return table
}

// applyConfig copies file values into flag vars the user did not set explicitly.
func applyConfig(cmd *cobra.Command, cfg *Config) {
	if cfg == nil {
		return
	}
	s := cfg.Simulation
	setInt(cmd, "fleet-size", &fleetSize, s.FleetSize)
	setInt(cmd, "sample-size", &sampleSize, s.SampleSize)
	setInt(cmd, "num-results", &numResults, s.NumResults)
	if s.Delay != nil && !cmd.Flags().Changed("delay") {
		delay = *s.Delay
	}
	if s.Timeout > 0 && !cmd.Flags().Changed("timeout") {
		timeout = s.Timeout
	}
	if s.Seed != 0 && !cmd.Flags().Changed("seed") {
		seed = s.Seed
	}
}

func setInt(cmd *cobra.Command, flag string, dst *int, v int) {
	if v > 0 && !cmd.Flags().Changed(flag) {
		*dst = v
	}
}

// loadEnv reads the .env file, if any. A missing default ./.env is not an error.
func loadEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	logrus.Debugf("Loaded environment from %s", path)
	return nil
}

// envFallback returns value, or the environment variable when value is empty.
func envFallback(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// prepareRun loads the env file and the defaults file for a command and applies them.
func prepareRun(cmd *cobra.Command) *Config {
	if err := loadEnv(envFile); err != nil {
		logrus.Fatalf("%v", err)
	}
	if configPath == "" {
		return nil
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	applyConfig(cmd, cfg)
	return cfg
}
