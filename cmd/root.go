package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional YAML defaults file
	envFile    string // Optional .env file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "nara-sim",
	Short: "Fleet simulator and persona tooling for the NARA-T recommendation demo",
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies --log, falling back to the command's default level.
func setupLogging(defaultLevel string) {
	lvl := logLevel
	if lvl == "" {
		lvl = defaultLevel
	}
	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", lvl)
	}
	logrus.SetLevel(level)
}

// init sets up persistent flags shared by all subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML defaults file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
}
