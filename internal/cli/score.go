package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/internal/lock"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run one evaluation cycle and print the report",
	Long: `Run one evaluation cycle and print the report.

Collects a fresh snapshot of system state, grades it against the stored
rubric and prints the itemized breakdown. The previous-cycle entity set
is updated, so removal penalties fire on the next run after an account
disappears.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := requireStore()
		cfg := loadConfig()
		log := newLogger(cfg)

		lm := lock.NewManager(stateDir())
		lease, err := lm.Acquire("score")
		if err != nil {
			fmtErr("score: %v", err)
			os.Exit(1)
		}
		defer lm.Release(lease.HolderNonce)

		checker := buildChecker(cfg, st, log)
		report, err := checker.RunCycle(context.Background(), "manual")
		if err != nil {
			lm.Release(lease.HolderNonce)
			fmtErr("score: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(report)
			return
		}
		renderReport(report)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
