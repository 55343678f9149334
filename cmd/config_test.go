package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-t/nara-sim/sim"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ShippedDefaults(t *testing.T) {
	path := "defaults.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = "../defaults.yaml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Skip("defaults.yaml not found, skipping")
		}
	}

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, sim.DefaultSampleSize, cfg.Simulation.SampleSize)
	require.NotNil(t, cfg.Simulation.Delay)
	assert.Equal(t, sim.DefaultDelay, *cfg.Simulation.Delay)
	assert.Equal(t, 10*time.Second, cfg.Simulation.Timeout)
	table := cfg.artistTable()
	assert.Equal(t, "Oasis Radio", table.Lookup(109))
	assert.Equal(t, "Nour Haddad", table.Lookup(101), "built-in names survive the merge")
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "simulation:\n  sample_sise: 10\n")
	_, err := loadConfig(path)
	assert.Error(t, err, "typos must cause errors")
}

func TestLoadConfig_NegativeDelayRejected(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "simulation:\n  delay: -1s\n")
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	cfg, err := loadConfig(writeFile(t, "cfg.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Simulation.SampleSize)
}

func TestApplyConfig_ExplicitFlagsWin(t *testing.T) {
	// GIVEN a command whose --sample-size was set explicitly
	cmd := &cobra.Command{Use: "t"}
	addSimulationFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--sample-size", "3"}))
	t.Cleanup(func() {
		sampleSize, fleetSize, delay, seed = sim.DefaultSampleSize, sim.DefaultFleetSize, sim.DefaultDelay, 0
	})

	// WHEN a config with other values is applied
	second := time.Second
	applyConfig(cmd, &Config{Simulation: SimulationDefaults{SampleSize: 10, FleetSize: 30, Delay: &second, Seed: 9}})

	// THEN only the flags left at their defaults take the file values
	assert.Equal(t, 3, sampleSize)
	assert.Equal(t, 30, fleetSize)
	assert.Equal(t, time.Second, delay)
	assert.Equal(t, int64(9), seed)
}

func TestApplyConfig_ZeroDelayFromFile(t *testing.T) {
	// GIVEN a defaults file that disables the pause
	cfg, err := loadConfig(writeFile(t, "cfg.yaml", "simulation:\n  delay: 0s\n"))
	require.NoError(t, err)
	cmd := &cobra.Command{Use: "t"}
	addSimulationFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(nil))
	t.Cleanup(func() { delay = sim.DefaultDelay })

	// WHEN it is applied
	applyConfig(cmd, cfg)

	// THEN the delay is zero rather than the flag default
	assert.Equal(t, time.Duration(0), delay)
}

func TestApplyConfig_DelayOmitted_KeepsFlagDefault(t *testing.T) {
	cfg, err := loadConfig(writeFile(t, "cfg.yaml", "simulation:\n  sample_size: 5\n"))
	require.NoError(t, err)
	cmd := &cobra.Command{Use: "t"}
	addSimulationFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(nil))
	t.Cleanup(func() { delay, sampleSize = sim.DefaultDelay, sim.DefaultSampleSize })

	applyConfig(cmd, cfg)

	assert.Equal(t, sim.DefaultDelay, delay)
	assert.Equal(t, 5, sampleSize)
}

func TestLoadEnv_FillsFallbacks(t *testing.T) {
	path := writeFile(t, ".env", envEndpoint+"=http://from-env:9000\n"+envAPIKey+"=secret\n")
	t.Setenv(envEndpoint, "")
	t.Setenv(envAPIKey, "")
	require.NoError(t, os.Unsetenv(envEndpoint))
	require.NoError(t, os.Unsetenv(envAPIKey))

	require.NoError(t, loadEnv(path))

	assert.Equal(t, "http://from-env:9000", envFallback("", envEndpoint))
	assert.Equal(t, "http://flag", envFallback("http://flag", envEndpoint))
	assert.Equal(t, "secret", envFallback("", envAPIKey))
}

func TestLoadEnv_MissingExplicitFile(t *testing.T) {
	assert.Error(t, loadEnv(filepath.Join(t.TempDir(), "nope.env")))
}
