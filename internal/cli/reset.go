package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var resetAll bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored rubric",
	Long: `Delete the stored rubric, returning to the unconfigured state.

The key material is kept so a later configure reuses it. With --all,
answers, cooldowns, carryover and history are deleted too.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := requireStore()
		if err := st.Reset(); err != nil {
			fmtErr("reset: %v", err)
			os.Exit(1)
		}

		if resetAll {
			for _, name := range []string{"answers.json", "cooldowns.json", "carryover.json", "history.jsonl"} {
				path := filepath.Join(stateDir(), name)
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					fmtErr("remove %s: %v", name, err)
					os.Exit(1)
				}
			}
		}

		if jsonOutput {
			outputJSON(map[string]any{"reset": true, "all": resetAll})
			return
		}
		if resetAll {
			fmt.Println("Rubric and all exercise state deleted.")
		} else {
			fmt.Println("Rubric deleted.")
		}
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "also delete answers, carryover and history")
	rootCmd.AddCommand(resetCmd)
}
