package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scorebox-project/scorebox/internal/history"
	"github.com/scorebox-project/scorebox/pkg/color"
)

var (
	historyLimit  int
	historyVerify bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past evaluation runs",
	Long: `Show past evaluation runs.

Each check appends a summary record to a hash-chained log. Use --verify
to recompute the chain and detect any after-the-fact edits.

Examples:
  scorebox history           # list recent runs
  scorebox history -n 5      # last 5 runs
  scorebox history --verify  # verify chain integrity`,
	Run: func(cmd *cobra.Command, args []string) {
		log := history.NewLog(stateDir())

		if historyVerify {
			n, err := log.Verify()
			if err != nil {
				fmtErr("history: %v", err)
				os.Exit(1)
			}
			if jsonOutput {
				outputJSON(map[string]any{"verified": true, "records": n})
				return
			}
			fmt.Printf("%s %d record(s) verified.\n", color.Success("OK"), n)
			return
		}

		records, err := log.List()
		if err != nil {
			fmtErr("history: %v", err)
			os.Exit(1)
		}
		if historyLimit > 0 && len(records) > historyLimit {
			records = records[len(records)-historyLimit:]
		}

		if jsonOutput {
			outputJSON(records)
			return
		}
		if len(records) == 0 {
			fmt.Println("No checks recorded yet.")
			return
		}
		for _, rec := range records {
			fmt.Printf("%s  %-8s  %s  (%d items)\n",
				rec.Timestamp.Format("2006-01-02 15:04:05"),
				rec.Trigger,
				color.Points(rec.CurrentPoints)+fmt.Sprintf(" / %d", rec.MaxPoints),
				rec.ItemCount)
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the last N records")
	historyCmd.Flags().BoolVar(&historyVerify, "verify", false, "verify the hash chain")
	rootCmd.AddCommand(historyCmd)
}
