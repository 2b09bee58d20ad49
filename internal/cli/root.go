// Package cli implements the scorebox command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/pkg/color"
)

var (
	jsonOutput   bool
	noColor      bool
	stateDirFlag string

	rootCmd = &cobra.Command{
		Use:   "scorebox",
		Short: "Scorebox - compliance scoring for hardening exercises",
		Long: `Scorebox grades a machine's live configuration against an encrypted
rubric: policy restrictions, system settings, installed packages, file
removals and free-response forensics questions. Scores are recomputed
from scratch every check, so the report always reflects current state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&stateDirFlag, "state-dir", "", "state directory (default $SCOREBOX_STATE_DIR or ~/.scorebox)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// stateDir resolves the state directory: flag, then environment, then
// ~/.scorebox.
func stateDir() string {
	if stateDirFlag != "" {
		return stateDirFlag
	}
	if env := os.Getenv("SCOREBOX_STATE_DIR"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scorebox"
	}
	return filepath.Join(home, ".scorebox")
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtErr(format string, args ...any) {
	prefix := "scorebox: "
	if color.Enabled() {
		prefix = color.Error("scorebox:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
