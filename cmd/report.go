package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nara-t/nara-sim/sim/render"
	"github.com/nara-t/nara-sim/sim/trace"
)

var (
	reportDataPath   string // Trace data CSV to summarize
	reportHeaderPath string // Trace header YAML
	reportLang       string // Display language
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-render the log panel and summary of a recorded simulation trace",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging("warn")
		if reportDataPath == "" {
			logrus.Fatalf("--trace-data is required")
		}
		if err := runReport(reportHeaderPath, reportDataPath, reportLang, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Report failed: %v", err)
		}
	},
}

// runReport loads a trace and renders what the page showed at the end of the run.
func runReport(headerPath, dataPath, lang string, out io.Writer) error {
	if headerPath == "" {
		headerPath = strings.TrimSuffix(dataPath, filepath.Ext(dataPath)) + ".yaml"
	}
	tr, err := trace.Load(headerPath, dataPath)
	if err != nil {
		return err
	}

	session := render.NewSession(lang)
	panel := render.NewLogPanel(nil)
	for _, row := range tr.Rows {
		panel.Observe(row.Record())
	}

	_, _ = fmt.Fprintf(out, "Trace v%d: %s (seed %d, %d rows)\n", tr.Header.Version, tr.Header.Endpoint, tr.Header.Seed, len(tr.Rows))
	_, _ = fmt.Fprintln(out, panel.Render(session))
	_, _ = fmt.Fprintln(out, render.RenderSummary(session, trace.Summarize(tr)))
	return nil
}

func init() {
	reportCmd.Flags().StringVar(&reportDataPath, "trace-data", "", "Trace data CSV")
	reportCmd.Flags().StringVar(&reportHeaderPath, "trace-header", "", "Trace header YAML (default: trace data path with .yaml)")
	reportCmd.Flags().StringVar(&reportLang, "lang", string(render.LangEnglish), "Display language (en, ar)")

	rootCmd.AddCommand(reportCmd)
}
