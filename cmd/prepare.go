package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nara-t/nara-sim/sim/profile"
)

var (
	profilesPath string // Persona profile mapping (input)
	personaOut   string // Generated persona list (output)
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Generate the demo page persona list from a persona profile mapping",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging("info")
		if err := runPrepare(profilesPath, personaOut, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Persona preparation failed: %v", err)
		}
	},
}

// runPrepare converts the profile file at in into the persona list at out.
func runPrepare(in, out string, w io.Writer) error {
	profiles, err := profile.LoadProfiles(in)
	if err != nil {
		return err
	}
	entries := profile.Prepare(profiles)
	if err := profile.WriteFile(out, entries); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Generated %s with %d personas.\n", filepath.Base(out), len(entries))
	return nil
}

func init() {
	prepareCmd.Flags().StringVar(&profilesPath, "profiles", "persona_profiles.json", "Persona profile mapping (JSON)")
	prepareCmd.Flags().StringVar(&personaOut, "out", "persona_data.js", "Output file (.js for the page script, otherwise JSON)")

	rootCmd.AddCommand(prepareCmd)
}
